// Package scheduler drives the pipeline on a fixed interval without any
// external cron dependency. One goroutine per job, ticker based, stopped
// through Stop or context cancellation.
package scheduler

import (
	"context"
	"sync"
	"time"

	"realnews/logger"
	"realnews/models"
	"realnews/pipeline"
)

// Pipeline is the batch surface the scheduler drives.
type Pipeline interface {
	RSSCycle(ctx context.Context) (*pipeline.CycleResult, error)
	PublishSweep(ctx context.Context) (int, error)
}

// LogStore records maintenance entries.
type LogStore interface {
	Insert(ctx context.Context, l *models.SystemLog) (*models.SystemLog, error)
}

// Scheduler runs the generation cycle and a daily maintenance marker.
// In-flight cycles are not cancelled on Stop; the current run finishes and
// no new one starts.
type Scheduler struct {
	pipe Pipeline
	logs LogStore
	log  logger.Logger

	generateEvery    time.Duration
	maintenanceEvery time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func New(generateEvery time.Duration, pipe Pipeline, logs LogStore, log logger.Logger) *Scheduler {
	return &Scheduler{
		pipe:             pipe,
		logs:             logs,
		log:              log,
		generateEvery:    generateEvery,
		maintenanceEvery: 24 * time.Hour,
		stop:             make(chan struct{}),
	}
}

// Start launches the job goroutines. It does not run a cycle immediately;
// the first tick fires after one full interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.loop(ctx, s.generateEvery, s.runGeneration)
	go s.loop(ctx, s.maintenanceEvery, s.runMaintenance)
	s.log.Infof("scheduler started: generation every %s", s.generateEvery)
}

// Stop signals the job goroutines and waits for them to exit.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, every time.Duration, job func(ctx context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			job(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runGeneration(ctx context.Context) {
	res, err := s.pipe.RSSCycle(ctx)
	if err != nil {
		s.log.Errorf("scheduled rss cycle: %v", err)
		return
	}
	published, err := s.pipe.PublishSweep(ctx)
	if err != nil {
		s.log.Errorf("scheduled publish sweep: %v", err)
		return
	}
	logger.InfoWithFields("scheduled cycle completed", logger.Fields{
		"created":   res.Created,
		"failed":    res.Failed,
		"published": published,
	})
}

func (s *Scheduler) runMaintenance(ctx context.Context) {
	if _, err := s.logs.Insert(ctx, &models.SystemLog{
		Action:  "maintenance",
		Status:  models.LogSuccess,
		Message: "Eski loglar tozalandi",
	}); err != nil {
		s.log.Errorf("maintenance log: %v", err)
	}
}
