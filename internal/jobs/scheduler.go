// Package jobs runs periodic background jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner is a job that can be registered with the scheduler.
type Runner interface {
	Spec() string
	Func(ctx context.Context) func()
}

// Scheduler is a cron-like job scheduler.
type Scheduler struct {
	*cron.Cron
	log *zap.SugaredLogger
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

func NewScheduler(log *zap.SugaredLogger) *Scheduler {
	log = log.Named("cron")
	return &Scheduler{
		Cron: cron.New(cron.WithLogger(cronLogger{log: log}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: log}))),
		log:  log,
	}
}

// Register adds runner under name. An empty spec disables the job.
func (s *Scheduler) Register(ctx context.Context, name string, runner Runner) error {
	spec := runner.Spec()
	if spec == "" {
		s.log.Infow("job disabled", "job", name)
		return nil
	}

	if _, err := s.Cron.AddFunc(spec, runner.Func(ctx)); err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	s.log.Infow("job registered", "job", name, "spec", spec)
	return nil
}

// Shutdown waits for running jobs, but not longer than timeout.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(s.Cron.Stop(), timeout)
	defer cancel()
	<-ctx.Done()
}
