// Command analyze runs the drawdown analysis over the local price history and
// optionally refreshes it, refits the growth model and records a valuation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"AHRSentinel/internal/analysis"
	"AHRSentinel/internal/app"
	"AHRSentinel/internal/collector"
	"AHRSentinel/internal/config"
	"AHRSentinel/internal/logger"
	"AHRSentinel/internal/model"
	"AHRSentinel/internal/valuation"
)

const dateLayout = "2006-01-02"

type flags struct {
	config       string
	year         int
	fetch        bool
	refit        bool
	runValuation bool
	asJSON       bool
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "configs/config.yaml", "path to the YAML config")
	flag.IntVar(&f.year, "year", 0, "analysis year (default: from config, else year of the latest bar)")
	flag.BoolVar(&f.fetch, "fetch", false, "download the full history into the history file first")
	flag.BoolVar(&f.refit, "refit", false, "refit the growth model and overwrite the parameter artifact")
	flag.BoolVar(&f.runValuation, "valuation", false, "compute the AHR999 index and append it to the log")
	flag.BoolVar(&f.asJSON, "json", false, "print the report as JSON")
	flag.Parse()

	cfg, err := config.Load(f.config)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	zl := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, f, os.Stdout, zl)
	stop()
	if err != nil {
		zl.Error().Err(err).Msg("analyze failed")
		os.Exit(1)
	}
}

// run executes one analysis. Errors are returned so that deferred closes run.
func run(ctx context.Context, cfg *config.Config, f flags, w io.Writer, zl zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if f.fetch {
		n, err := collector.Sync(ctx, app.NewOnlineFetcher(cfg), cfg.DataSource.Symbol, cfg.DataSource.Currency, cfg.DataSource.HistoryFile)
		if err != nil {
			return fmt.Errorf("sync history: %w", err)
		}
		zl.Info().Int("bars", n).Str("path", cfg.DataSource.HistoryFile).Msg("history saved")
	}

	svc, vlog, err := app.NewService(cfg, collector.NewCSVFetcher(cfg.DataSource.HistoryFile), zl)
	if err != nil {
		return fmt.Errorf("init valuation service: %w", err)
	}
	defer app.Close(zl, "valuation log", vlog.Close)

	series, err := svc.Collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	opts := app.AnalysisOptions(cfg)
	if f.year != 0 {
		opts.Year = f.year
	}
	rep, err := analysis.Analyze(series, opts)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if !rep.HasYear() {
		zl.Warn().Int("year", rep.Year).Msg("no data for the analysis year")
	}

	out := output{Report: rep}
	if f.refit {
		p, err := svc.Refit(series)
		if err != nil {
			return fmt.Errorf("refit growth model: %w", err)
		}
		out.Params = &p
	}
	if f.runValuation {
		res, err := svc.RunOn(series, time.Now())
		if err != nil {
			return fmt.Errorf("valuation: %w", err)
		}
		out.Valuation = res
	}

	if f.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printText(w, out)
	return nil
}

type output struct {
	Report    *analysis.Report       `json:"report"`
	Params    *model.ModelParameters `json:"params,omitempty"`
	Valuation *valuation.Result      `json:"valuation,omitempty"`
}

func printText(w io.Writer, out output) {
	rep := out.Report
	fmt.Fprintf(w, "Data range: %s to %s (%d bars)\n", rep.From.Format(dateLayout), rep.To.Format(dateLayout), rep.Bars)
	fmt.Fprintln(w, "\nLatest bars:")
	for _, p := range rep.Tail {
		fmt.Fprintf(w, "  %s  open %.2f  high %.2f  low %.2f  close %.2f\n",
			p.Date.Format(dateLayout), p.Open, p.High, p.Low, p.Close)
	}

	if rep.HasYear() {
		dd := rep.YearMaxDrawdown
		fmt.Fprintf(w, "\n%d max drawdown: %.2f%%\n", rep.Year, dd.Ratio*100)
		fmt.Fprintf(w, "  trough %s  $%.2f\n", dd.ExtremeDate.Format(dateLayout), dd.ExtremePrice)
		fmt.Fprintf(w, "  peak   %s  $%.2f\n", dd.AnchorDate.Format(dateLayout), dd.AnchorPrice)

		fmt.Fprintf(w, "\n%d simulated trades:\n", rep.Year)
		for _, ev := range rep.Trades {
			fmt.Fprintf(w, "  %s: %s at $%.2f\n", ev.Date.Format(dateLayout), ev.Kind, ev.Price)
		}

		fmt.Fprintln(w, "\nWorst loss after each buy:")
		for _, r := range rep.PostTrade {
			fmt.Fprintf(w, "  bought %s at $%.2f: %.2f%% on %s ($%.2f)\n",
				r.BuyDate.Format(dateLayout), r.BuyPrice, r.WorstDrawdown*100,
				r.WorstDate.Format(dateLayout), r.WorstPrice)
		}
	} else {
		fmt.Fprintf(w, "\nWarning: no data for %d\n", rep.Year)
	}

	cur := rep.Current
	fmt.Fprintln(w, "\nCurrent drawdown from the previous peak:")
	fmt.Fprintf(w, "  current %s  $%.2f\n", cur.ExtremeDate.Format(dateLayout), cur.ExtremePrice)
	fmt.Fprintf(w, "  peak    %s  $%.2f\n", cur.AnchorDate.Format(dateLayout), cur.AnchorPrice)
	fmt.Fprintf(w, "  drawdown %.2f%%\n", cur.Ratio*100)

	if out.Params != nil {
		p := out.Params
		fmt.Fprintf(w, "\nGrowth model: X0=%.6f X_M=%.0f r=%.8f (fitted through %s)\n",
			p.X0, p.XM, p.R, p.LastFitDate.Format(dateLayout))
	}
	if out.Valuation != nil {
		v := out.Valuation.Valuation
		fmt.Fprintf(w, "\nAHR999 %.4f (%s): price %.2f, cost %.2f, fair value %.2f\n",
			v.Index, out.Valuation.Zone, v.Price, v.Cost, v.FairValue)
	}
}
