package core

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hdfsbridge/config"
)

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

type Runner struct {
	Config          *config.Config
	TransferManager *TransferManager
	Cron            *cron.Cron
	logger          *zap.Logger
	cronLog         cron.Logger
	immediate       sync.WaitGroup
}

func NewRunner(cfg *config.Config, tm *TransferManager, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{s: logger.Sugar()}
	return &Runner{
		Config:          cfg,
		TransferManager: tm,
		Cron:            cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		logger:          logger,
		cronLog:         cl,
	}
}

func (r *Runner) job(task config.Task) cron.Job {
	return cron.FuncJob(func() {
		if _, err := r.TransferManager.RunTask(task); err != nil {
			r.logger.Error("task failed", zap.String("task", task.Name), zap.Error(err))
		}
	})
}

// Start schedules every task and runs each once right away. A task never
// overlaps itself: the immediate run and the scheduled runs share one guard.
func (r *Runner) Start() error {
	for _, task := range r.Config.Tasks {
		job := cron.NewChain(cron.SkipIfStillRunning(r.cronLog)).Then(r.job(task))
		if _, err := r.Cron.AddJob(task.Cron, job); err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", task.Name, err)
		}
		r.logger.Info("scheduled task", zap.String("task", task.Name), zap.String("cron", task.Cron))

		r.immediate.Add(1)
		go func() {
			defer r.immediate.Done()
			r.logger.Info("executing immediate run", zap.String("task", task.Name))
			job.Run()
		}()
	}
	r.Cron.Start()
	return nil
}

// Stop stops scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.Cron.Stop().Done()
	r.immediate.Wait()
}
