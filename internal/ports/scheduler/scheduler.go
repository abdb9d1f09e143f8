package scheduler

import "context"

// JobData داده‌ی آزاد همراه هر job (شامل createdAt برای تشخیص جدیدترین)
type JobData map[string]interface{}

// JobInfo یک job زمان‌بندی‌شده
type JobInfo struct {
	ID   string
	Name string
	Cron string
	Data JobData
}

// Scheduler پورت برای موتور زمان‌بندی
type Scheduler interface {
	// RunJob schedules a recurring job and returns its id.
	RunJob(ctx context.Context, job JobInfo) (string, error)
	ListJobs(ctx context.Context) ([]JobInfo, error)
	CancelJob(ctx context.Context, id string) error
}
