package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"AHRSentinel/internal/analysis"
	"AHRSentinel/internal/notifier"
	"AHRSentinel/internal/store"
	"AHRSentinel/internal/valuation"
)

const sendRetries = 3

// Scheduler manages the cron tasks and answers bot commands. Jobs and
// commands are serialized so the parameter artifact and the valuation log
// have a single writer.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *valuation.Service
	Analysis analysis.Options
	Notifier notifier.Sender
	Ctx      context.Context

	mu  sync.Mutex
	now func() time.Time
	log zerolog.Logger
}

// NewScheduler creates a new Scheduler. Notifier may be nil, in which case
// job results are only logged.
func NewScheduler(ctx context.Context, svc *valuation.Service, opts analysis.Options, n notifier.Sender, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Analysis: opts,
		Notifier: n,
		Ctx:      ctx,
		now:      time.Now,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the daily valuation and the periodic refit.
func (s *Scheduler) RegisterAll(valuationCron, refitCron string) error {
	if _, err := s.Cron.AddFunc(valuationCron, s.valuationTask); err != nil {
		return fmt.Errorf("register valuation task: %w", err)
	}
	if refitCron == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(refitCron, s.refitTask); err != nil {
		return fmt.Errorf("register refit task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the valuation task immediately (RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.valuationTask()
}

func (s *Scheduler) jobLogger(job string) zerolog.Logger {
	return s.log.With().Str("job", job).Str("run_id", uuid.NewString()).Logger()
}

func (s *Scheduler) valuationTask() {
	log := s.jobLogger("valuation")
	log.Info().Msg("running valuation task")
	msg, err := s.valuate(log)
	if err != nil {
		log.Error().Err(err).Msg("valuation task failed")
		s.trySend(log, fmt.Sprintf("❌ AHR999 计算失败: %v", err))
		return
	}
	s.trySend(log, msg)
}

func (s *Scheduler) refitTask() {
	log := s.jobLogger("refit")
	log.Info().Msg("running refit task")
	msg, err := s.refit(log)
	if err != nil {
		log.Error().Err(err).Msg("refit task failed")
		s.trySend(log, fmt.Sprintf("❌ 模型拟合失败，沿用旧参数: %v", err))
		return
	}
	s.trySend(log, msg)
}

func (s *Scheduler) valuate(log zerolog.Logger) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.Service.Run(s.Ctx, s.now())
	if err != nil {
		return "", err
	}
	log.Info().Float64("ahr999", res.Valuation.Index).Str("zone", string(res.Zone)).Bool("refitted", res.Refitted).Msg("valuation done")
	return notifier.FormatValuation(res), nil
}

func (s *Scheduler) refit(log zerolog.Logger) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, err := s.Service.Collector.Collect(s.Ctx)
	if err != nil {
		return "", err
	}
	p, err := s.Service.Refit(series)
	if err != nil {
		return "", err
	}
	log.Info().Float64("r", p.R).Msg("refit done")
	return notifier.FormatParams(p, s.now()), nil
}

func (s *Scheduler) analyze() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, err := s.Service.Collector.Collect(s.Ctx)
	if err != nil {
		return "", err
	}
	rep, err := analysis.Analyze(series, s.Analysis)
	if err != nil {
		return "", err
	}
	return notifier.FormatAnalysis(rep), nil
}

func (s *Scheduler) params() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.Service.Params.Load()
	if errors.Is(err, store.ErrParamsNotFound) {
		return "尚未拟合增长模型，发送 " + notifier.CmdRefit + " 进行拟合", nil
	}
	if err != nil {
		return "", err
	}
	return notifier.FormatParams(p, s.now()), nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	log := s.jobLogger("command")
	var (
		msg string
		err error
	)
	switch command {
	case notifier.CmdCalculate:
		msg, err = s.valuate(log)
	case notifier.CmdAnalysis:
		msg, err = s.analyze()
	case notifier.CmdRefit:
		msg, err = s.refit(log)
	case notifier.CmdParams:
		msg, err = s.params()
	default:
		return "可用命令:\n• " + notifier.CmdCalculate + " 计算 AHR999\n• " + notifier.CmdAnalysis +
			" 回撤分析\n• " + notifier.CmdParams + " 模型参数\n• " + notifier.CmdRefit + " 重新拟合"
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("command failed")
		return fmt.Sprintf("❌ 执行失败: %v", err)
	}
	return msg
}

func (s *Scheduler) trySend(log zerolog.Logger, text string) {
	if s.Notifier == nil {
		log.Info().Str("message", text).Msg("no notifier configured")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
