package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/yanqian/phytocast/internal/domain/prediction"
)

// Exporter writes the prediction history to object storage.
type Exporter interface {
	Export(ctx context.Context) (prediction.ExportResponse, error)
}

// Scheduler periodically exports prediction history.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	exporter   Exporter
	interval   time.Duration
	jobTimeout time.Duration
	logger     *slog.Logger
}

// New creates a Scheduler. A non-positive interval disables it.
func New(interval time.Duration, exporter Exporter, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		exporter:   exporter,
		interval:   interval,
		jobTimeout: time.Minute,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start schedules the export job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 || s.exporter == nil {
		s.logger.Info("scheduled export disabled")
		return nil
	}

	s.scheduler.SingletonModeAll()
	if _, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.runExport); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduled export started", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) runExport() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	resp, err := s.exporter.Export(ctx)
	if err != nil {
		s.logger.Error("scheduled export failed", "error", err)
		return
	}
	s.logger.Info("scheduled export completed", "key", resp.Object.Key, "rows", resp.Rows)
}
