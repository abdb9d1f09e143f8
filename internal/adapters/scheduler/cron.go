package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fundsync/internal/core/schedjob"
	schedulerPort "fundsync/internal/ports/scheduler"

	"github.com/gofrs/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler تابع اجرایی یک tick از job
type Handler func(ctx context.Context)

// CronScheduler implements the Scheduler port with robfig/cron for firing and
// a database table as the job registry, so ListJobs sees schedules created
// before a restart.
type CronScheduler struct {
	DB     *gorm.DB
	Logger *zap.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	cron     *cron.Cron
	entries  map[string]cron.EntryID // job id -> cron entry
}

func NewCronScheduler(db *gorm.DB, logger *zap.Logger) *CronScheduler {
	return &CronScheduler{
		DB:       db,
		Logger:   logger,
		handlers: make(map[string]Handler),
		cron:     cron.New(),
		entries:  make(map[string]cron.EntryID),
	}
}

// RegisterHandler binds a job name to the function its ticks run. Must be
// called before Start/RunJob for that name.
func (s *CronScheduler) RegisterHandler(name string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
}

// Start resumes all active jobs from the registry and starts the cron engine.
func (s *CronScheduler) Start(ctx context.Context) error {
	var rows []*schedjob.ScheduledJob
	if err := s.DB.Where("status = ?", schedjob.StatusActive).Find(&rows).Error; err != nil {
		return fmt.Errorf("load scheduled jobs: %w", err)
	}
	for _, row := range rows {
		if err := s.schedule(row.ID.String(), row.Name, row.Cron); err != nil {
			s.Logger.Error("❌ Could not resume scheduled job",
				zap.String("name", row.Name), zap.Error(err))
		}
	}
	s.cron.Start()
	s.Logger.Info("🚀 Cron scheduler started", zap.Int("jobs", len(rows)))
	return nil
}

// Stop halts the cron engine and waits for running ticks.
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *CronScheduler) RunJob(ctx context.Context, job schedulerPort.JobInfo) (string, error) {
	raw, err := json.Marshal(job.Data)
	if err != nil {
		return "", fmt.Errorf("marshal job data: %w", err)
	}

	id := uuid.Must(uuid.NewV4())
	row := &schedjob.ScheduledJob{
		ID:     id,
		Name:   job.Name,
		Cron:   job.Cron,
		Data:   string(raw),
		Status: schedjob.StatusActive,
	}
	if err := s.DB.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("persist scheduled job %s: %w", job.Name, err)
	}

	if err := s.schedule(id.String(), job.Name, job.Cron); err != nil {
		// keep the registry consistent with the engine
		s.DB.WithContext(ctx).Model(&schedjob.ScheduledJob{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"status": schedjob.StatusCancelled, "cancelled_at": time.Now()})
		return "", err
	}
	return id.String(), nil
}

func (s *CronScheduler) ListJobs(ctx context.Context) ([]schedulerPort.JobInfo, error) {
	var rows []*schedjob.ScheduledJob
	if err := s.DB.WithContext(ctx).
		Where("status = ?", schedjob.StatusActive).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list scheduled jobs: %w", err)
	}

	jobs := make([]schedulerPort.JobInfo, 0, len(rows))
	for _, row := range rows {
		data := schedulerPort.JobData{}
		if row.Data != "" {
			if err := json.Unmarshal([]byte(row.Data), &data); err != nil {
				s.Logger.Warn("⚠️ Bad job data, treating as empty",
					zap.String("id", row.ID.String()), zap.Error(err))
			}
		}
		jobs = append(jobs, schedulerPort.JobInfo{
			ID:   row.ID.String(),
			Name: row.Name,
			Cron: row.Cron,
			Data: data,
		})
	}
	return jobs, nil
}

func (s *CronScheduler) CancelJob(ctx context.Context, id string) error {
	s.mu.Lock()
	if entryID, ok := s.entries[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
	s.mu.Unlock()

	now := time.Now()
	if err := s.DB.WithContext(ctx).Model(&schedjob.ScheduledJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": schedjob.StatusCancelled, "cancelled_at": now}).Error; err != nil {
		return fmt.Errorf("cancel scheduled job %s: %w", id, err)
	}
	return nil
}

func (s *CronScheduler) schedule(id, name, cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handlers[name]
	if !ok {
		return fmt.Errorf("no handler registered for job %q", name)
	}
	entryID, err := s.cron.AddFunc(cronExpr, func() {
		h(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule job %s (%s): %w", name, cronExpr, err)
	}
	s.entries[id] = entryID
	return nil
}
