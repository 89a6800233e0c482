package notifier

import (
	"fmt"
	"strings"
	"time"

	"AHRSentinel/internal/analysis"
	"AHRSentinel/internal/model"
	"AHRSentinel/internal/valuation"
)

const dateLayout = "2006-01-02"

var zoneLabels = map[valuation.Zone]string{
	valuation.ZoneBottom:     "🟢 抄底区间 (< 0.45)",
	valuation.ZoneAccumulate: "🟡 定投区间 (0.45 ~ 1.2)",
	valuation.ZoneWait:       "🔴 观望区间 (≥ 1.2)",
}

// FormatValuation formats a valuation run into a Telegram message.
func FormatValuation(res *valuation.Result) string {
	v := res.Valuation
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>AHR999 指数</b> | %s\n\n", v.AsOf.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("AHR999: <b>%.4f</b>\n", v.Index))
	b.WriteString(fmt.Sprintf("区间: %s\n\n", zoneLabels[res.Zone]))

	b.WriteString(fmt.Sprintf("当前价格: %.2f\n", v.Price))
	b.WriteString(fmt.Sprintf("200日定投成本: %.2f\n", v.Cost))
	b.WriteString(fmt.Sprintf("拟合估值: %.2f\n", v.FairValue))
	if res.MA200 > 0 {
		dev := (v.Price - res.MA200) / res.MA200 * 100
		b.WriteString(fmt.Sprintf("MA200: %.2f (偏离 %+.1f%%)\n", res.MA200, dev))
	}

	if res.Refitted {
		b.WriteString(fmt.Sprintf("\n🔧 已重新拟合增长模型 (r=%.6f)\n", res.Params.R))
	}
	return b.String()
}

// FormatParams formats the fitted model parameters. now is used to report
// how old the fit is.
func FormatParams(p model.ModelParameters, now time.Time) string {
	var b strings.Builder
	b.WriteString("🧮 <b>增长模型参数</b>\n\n")
	b.WriteString(fmt.Sprintf("X0: %.6f\n", p.X0))
	b.WriteString(fmt.Sprintf("X_M: %.0f\n", p.XM))
	b.WriteString(fmt.Sprintf("r: %.8f\n", p.R))
	b.WriteString(fmt.Sprintf("拟合截止: %s", p.LastFitDate.Format(dateLayout)))
	if age := int(now.Sub(p.LastFitDate).Hours() / 24); age > 0 {
		b.WriteString(fmt.Sprintf(" (%d 天前)", age))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatAnalysis formats a drawdown analysis report.
func FormatAnalysis(rep *analysis.Report) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📉 <b>回撤分析</b> | %s ~ %s\n\n", rep.From.Format(dateLayout), rep.To.Format(dateLayout)))

	if !rep.HasYear() {
		b.WriteString(fmt.Sprintf("⚠️ 数据中没有 %d 年的记录\n\n", rep.Year))
	} else {
		dd := rep.YearMaxDrawdown
		b.WriteString(fmt.Sprintf("<b>%d 年最大回撤:</b> %.2f%%\n", rep.Year, dd.Ratio*100))
		b.WriteString(fmt.Sprintf("  峰值: %s  $%.2f\n", dd.AnchorDate.Format(dateLayout), dd.AnchorPrice))
		b.WriteString(fmt.Sprintf("  低点: %s  $%.2f\n\n", dd.ExtremeDate.Format(dateLayout), dd.ExtremePrice))

		b.WriteString(fmt.Sprintf("<b>%d 年交易模拟:</b>\n", rep.Year))
		if len(rep.Trades) == 0 {
			b.WriteString("  无交易\n")
		}
		for _, ev := range rep.Trades {
			b.WriteString(fmt.Sprintf("  %s: %s at $%.2f\n", ev.Date.Format(dateLayout), ev.Kind, ev.Price))
		}
		b.WriteString("\n")

		if len(rep.PostTrade) > 0 {
			b.WriteString("<b>买入后的最大浮亏:</b>\n")
			for _, r := range rep.PostTrade {
				b.WriteString(fmt.Sprintf("  买入 %s $%.2f → %.2f%% (%s $%.2f)\n",
					r.BuyDate.Format(dateLayout), r.BuyPrice, r.WorstDrawdown*100,
					r.WorstDate.Format(dateLayout), r.WorstPrice))
			}
			b.WriteString("\n")
		}
	}

	cur := rep.Current
	b.WriteString("<b>当前回撤:</b>\n")
	b.WriteString(fmt.Sprintf("  当前: %s  $%.2f\n", cur.ExtremeDate.Format(dateLayout), cur.ExtremePrice))
	b.WriteString(fmt.Sprintf("  峰值: %s  $%.2f\n", cur.AnchorDate.Format(dateLayout), cur.AnchorPrice))
	b.WriteString(fmt.Sprintf("  回撤: %.2f%%\n", cur.Ratio*100))
	return b.String()
}
