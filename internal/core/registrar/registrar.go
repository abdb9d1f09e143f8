package registrar

import (
	"context"
	"time"

	schedulerPort "fundsync/internal/ports/scheduler"
	storePort "fundsync/internal/ports/store"
	"fundsync/internal/workers"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const (
	dataKeyCreatedAt = "createdAt"
	upgradeLeaseTTL  = 60 * time.Second
)

// Schedule یک job با نام و cron آن
type Schedule struct {
	Name string
	Cron string
}

// DefaultSchedules are the recurring reconciliation jobs installed on every
// app install/upgrade.
var DefaultSchedules = []Schedule{
	{Name: workers.JobDetailsRefresh, Cron: "*/5 * * * *"},
	{Name: workers.JobDescriptionRefresh, Cron: "*/30 * * * *"},
	{Name: workers.JobCoverImageCheck, Cron: "0 * * * *"},
	{Name: workers.JobDailySummary, Cron: "0 12 * * *"},
}

// Service installs recurring jobs idempotently: re-running it never produces
// duplicate schedules.
type Service struct {
	Scheduler schedulerPort.Scheduler
	Lease     storePort.Lease
	Schedules []Schedule
	Logger    *zap.Logger
}

func NewService(sched schedulerPort.Scheduler, lease storePort.Lease, logger *zap.Logger) *Service {
	return &Service{
		Scheduler: sched,
		Lease:     lease,
		Schedules: DefaultSchedules,
		Logger:    logger,
	}
}

// OnUpgrade runs the full registration sequence behind the upgrade lease.
// A held lease means another upgrade trigger is already doing this work, so
// skip without error.
func (s *Service) OnUpgrade(ctx context.Context) error {
	owner := uuid.Must(uuid.NewV4()).String()
	ok, err := s.Lease.Acquire(ctx, owner, upgradeLeaseTTL)
	if err != nil {
		return err
	}
	if !ok {
		s.Logger.Info("ℹ️ Upgrade lease already held, skipping job registration")
		return nil
	}
	defer func() {
		if err := s.Lease.Release(ctx, owner); err != nil {
			s.Logger.Warn("⚠️ Could not release upgrade lease", zap.Error(err))
		}
	}()

	for _, sched := range s.Schedules {
		if err := s.EnsureJob(ctx, sched.Name, sched.Cron); err != nil {
			// one job's failure must not block the others
			s.Logger.Error("❌ Could not register job",
				zap.String("name", sched.Name), zap.Error(err))
		}
	}
	return nil
}

// EnsureJob makes exactly one active schedule exist for the named job: it
// keeps the most recently created duplicate, cancels the rest, and recreates
// the survivor when its cron differs from the desired one.
func (s *Service) EnsureJob(ctx context.Context, name, cronExpr string) error {
	jobs, err := s.Scheduler.ListJobs(ctx)
	if err != nil {
		return err
	}

	var matching []schedulerPort.JobInfo
	for _, job := range jobs {
		if job.Name == name {
			matching = append(matching, job)
		}
	}

	if len(matching) == 0 {
		return s.create(ctx, name, cronExpr)
	}

	survivor := matching[0]
	for _, job := range matching[1:] {
		if jobCreatedAt(job).After(jobCreatedAt(survivor)) {
			survivor = job
		}
	}
	for _, job := range matching {
		if job.ID == survivor.ID {
			continue
		}
		if err := s.Scheduler.CancelJob(ctx, job.ID); err != nil {
			return err
		}
		s.Logger.Info("🧹 Cancelled duplicate job", zap.String("name", name), zap.String("id", job.ID))
	}

	if survivor.Cron == cronExpr {
		return nil
	}
	if err := s.Scheduler.CancelJob(ctx, survivor.ID); err != nil {
		return err
	}
	s.Logger.Info("🔁 Rescheduling job with new cron",
		zap.String("name", name), zap.String("cron", cronExpr))
	return s.create(ctx, name, cronExpr)
}

func (s *Service) create(ctx context.Context, name, cronExpr string) error {
	_, err := s.Scheduler.RunJob(ctx, schedulerPort.JobInfo{
		Name: name,
		Cron: cronExpr,
		Data: schedulerPort.JobData{
			dataKeyCreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	if err == nil {
		s.Logger.Info("✅ Job registered", zap.String("name", name), zap.String("cron", cronExpr))
	}
	return err
}

// jobCreatedAt reads the embedded creation timestamp; a job without one is
// treated as oldest.
func jobCreatedAt(job schedulerPort.JobInfo) time.Time {
	raw, ok := job.Data[dataKeyCreatedAt].(string)
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
