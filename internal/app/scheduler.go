package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job периодическая фоновая задача
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	jobs     []Job
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Add регистрирует задачу до Start
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Int("jobs", len(s.jobs)))

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, job)
	}
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := job.Run(ctx); err != nil {
				s.logger.Error("Background job failed", zap.String("job", job.Name), zap.Error(err))
				continue
			}
			s.logger.Debug("Background job done", zap.String("job", job.Name))
		case <-s.stopChan:
			s.logger.Info("Background job stopped", zap.String("job", job.Name))
			return
		case <-ctx.Done():
			s.logger.Info("Background job cancelled", zap.String("job", job.Name))
			return
		}
	}
}

// KeepAliveJob периодически дёргает собственный адрес, чтобы бесплатный хостинг не усыплял процесс
func KeepAliveJob(url string, interval time.Duration, client *http.Client) Job {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return Job{
		Name:     "keepalive",
		Interval: interval,
		Run: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("build keepalive request: %w", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("keepalive ping: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("keepalive ping: status %d", resp.StatusCode)
			}
			return nil
		},
	}
}
