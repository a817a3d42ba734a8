// Package scheduler запускает периодическое обновление ленты и еженедельную очистку логов.
package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"jobFeed/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Config struct {
	FeedInterval time.Duration
	FeedJitter   time.Duration
	CleanupSpec  string // стандартное cron-выражение из пяти полей
}

// Jobs - задачи, которые запускает планировщик.
type Jobs struct {
	UpdateFeed func(ctx context.Context)
	ClearLogs  func(ctx context.Context)
}

type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
	cfg  Config
	log  *logger.Zap

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config, jobs Jobs, log *logger.Zap) (*Scheduler, error) {
	if cfg.FeedInterval <= 0 {
		return nil, fmt.Errorf("интервал обновления ленты должен быть положительным: %s", cfg.FeedInterval)
	}

	cl := cronLogger{log.Sugar()}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		), cron.WithLogger(cl)),
		jobs: jobs,
		cfg:  cfg,
		log:  log,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.cron.Schedule(newJitterSchedule(cfg.FeedInterval, cfg.FeedJitter), cron.FuncJob(func() {
		s.log.Info("Плановое обновление ленты")
		s.jobs.UpdateFeed(s.ctx)
	}))

	if _, err := s.cron.AddFunc(cfg.CleanupSpec, func() {
		s.log.Info("Плановая очистка логов")
		s.jobs.ClearLogs(s.ctx)
	}); err != nil {
		return nil, fmt.Errorf("неверное расписание очистки логов %q: %w", cfg.CleanupSpec, err)
	}

	return s, nil
}

// Start запускает планировщик в фоне.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Info("Задача запланирована", zap.Int("id", int(e.ID)), zap.Time("next", e.Next))
	}
}

// RunNow выполняет стартовую очистку логов и обновление ленты синхронно.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.jobs.ClearLogs(ctx)
	s.jobs.UpdateFeed(ctx)
}

// Stop отменяет контекст задач и ждёт их завершения, но не дольше ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Планировщик остановлен")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("планировщик не остановился вовремя: %w", ctx.Err())
	}
}

// jitterSchedule срабатывает каждые every плюс случайное смещение из [0, jitter].
// Смещение только откладывает запуск, раньше every задача не стартует.
type jitterSchedule struct {
	every  time.Duration
	jitter time.Duration
	rand   func(n int64) int64
}

func newJitterSchedule(every, jitter time.Duration) jitterSchedule {
	return jitterSchedule{every: every, jitter: jitter, rand: rand.Int64N}
}

func (j jitterSchedule) Next(t time.Time) time.Time {
	d := j.every
	if j.jitter > 0 {
		d += time.Duration(j.rand(int64(j.jitter) + 1))
	}
	return t.Add(d)
}

// cronLogger передаёт служебные сообщения cron в zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
