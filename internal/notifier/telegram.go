package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

// CommandHandler is called when a user command is received and returns the
// HTML reply.
type CommandHandler func(command string) string

// Sender delivers a message to the configured chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Commands understood by the bot. CmdCalculate is also sent by the inline
// button.
const (
	CmdCalculate = "/ahr999"
	CmdAnalysis  = "/analysis"
	CmdRefit     = "/refit"
	CmdParams    = "/params"
)

var (
	btnCalculate = tele.Btn{Text: "计算 AHR999 指数", Unique: "calculate_ahr999"}
	btnAgain     = tele.Btn{Text: "再次计算", Unique: "calculate_ahr999"}
)

const welcomeText = "欢迎使用 AHR999 指数计算器! 点击下方按钮计算:"

// textCommands maps plain-text shortcuts to commands.
var textCommands = map[string]string{
	"计算":   CmdCalculate,
	"回撤分析": CmdAnalysis,
}

// commandForText returns the command a plain-text message stands for.
func commandForText(text string) (string, bool) {
	cmd, ok := textCommands[strings.TrimSpace(text)]
	return cmd, ok
}

// Bot is the Telegram front end.
type Bot struct {
	bot     *tele.Bot
	chatID  int64
	handler CommandHandler
	log     zerolog.Logger
}

// Options configures NewBot.
type Options struct {
	Token    string
	ChatID   int64 // push target; also the only chat allowed to refit
	ProxyURL string
	Offline  bool // build without contacting Telegram, for tests
}

// NewBot creates a bot with optional proxy support.
func NewBot(opts Options, log zerolog.Logger) (*Bot, error) {
	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	log = log.With().Str("component", "telegram").Logger()

	b, err := tele.NewBot(tele.Settings{
		Token:   opts.Token,
		Poller:  &tele.LongPoller{Timeout: 30 * time.Second},
		Client:  &http.Client{Timeout: 60 * time.Second, Transport: transport},
		Offline: opts.Offline,
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("telegram handler failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Bot{bot: b, chatID: opts.ChatID, log: log}, nil
}

// Send sends an HTML message to the configured chat.
func (b *Bot) Send(text string) error {
	if _, err := b.bot.Send(tele.ChatID(b.chatID), text, tele.ModeHTML); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (b *Bot) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := b.Send(text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			b.log.Warn().Err(err).
				Int("attempt", i+1).
				Int("max_attempts", maxRetries+1).
				Dur("backoff", backoff).
				Msg("telegram send failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// Register wires the command handlers. Any plain text gets the welcome
// message; the inline button computes the index.
func (b *Bot) Register(handler CommandHandler) {
	b.handler = handler
	reply := func(cmd string) tele.HandlerFunc {
		return func(c tele.Context) error { return b.reply(c, cmd) }
	}

	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(CmdCalculate, reply(CmdCalculate))
	b.bot.Handle(CmdAnalysis, reply(CmdAnalysis))
	b.bot.Handle(CmdParams, reply(CmdParams))
	b.bot.Handle(CmdRefit, reply(CmdRefit), b.onlyOwner)

	b.bot.Handle(&btnCalculate, func(c tele.Context) error {
		if err := c.Respond(); err != nil {
			b.log.Warn().Err(err).Msg("answer callback")
		}
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(btnAgain))
		return c.Send(handler(CmdCalculate), menu, tele.ModeHTML)
	})
}

func (b *Bot) reply(c tele.Context, cmd string) error {
	b.log.Info().Str("command", cmd).Int64("chat_id", c.Chat().ID).Msg("command received")
	return c.Send(b.handler(cmd), tele.ModeHTML)
}

// handleText answers unknown commands with the help text, runs text
// shortcuts and greets everything else.
func (b *Bot) handleText(c tele.Context) error {
	if strings.HasPrefix(c.Text(), "/") {
		return c.Send(helpText())
	}
	if cmd, ok := commandForText(c.Text()); ok {
		return b.reply(c, cmd)
	}
	return b.handleStart(c)
}

func (b *Bot) handleStart(c tele.Context) error {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnCalculate))
	return c.Send(welcomeText, menu)
}

func (b *Bot) onlyOwner(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if b.chatID == 0 || c.Chat() == nil || c.Chat().ID != b.chatID {
			return c.Send("⛔ 无权限")
		}
		return next(c)
	}
}

func helpText() string {
	return "可用命令:\n• " + strings.Join([]string{CmdCalculate, CmdAnalysis, CmdParams, CmdRefit}, "\n• ") +
		"\n也可直接发送: 计算, 回撤分析"
}

// Start begins long polling. Blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	go b.bot.Start()
	b.log.Info().Msg("telegram polling started")
	<-ctx.Done()
	b.bot.Stop()
	b.log.Info().Msg("telegram polling stopped")
}
