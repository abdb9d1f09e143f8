package registrar

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	schedulerPort "fundsync/internal/ports/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScheduler struct {
	mu   sync.Mutex
	next int
	jobs map[string]schedulerPort.JobInfo
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[string]schedulerPort.JobInfo)}
}

func (f *fakeScheduler) RunJob(ctx context.Context, job schedulerPort.JobInfo) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	job.ID = "job-" + strconv.Itoa(f.next)
	f.jobs[job.ID] = job
	return job.ID, nil
}

func (f *fakeScheduler) ListJobs(ctx context.Context) ([]schedulerPort.JobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]schedulerPort.JobInfo, 0, len(f.jobs))
	for _, job := range f.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (f *fakeScheduler) CancelJob(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, id)
	return nil
}

func (f *fakeScheduler) byName(name string) []schedulerPort.JobInfo {
	var out []schedulerPort.JobInfo
	for _, job := range f.jobs {
		if job.Name == name {
			out = append(out, job)
		}
	}
	return out
}

type fakeLease struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLease) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	f.acquired++
	return true, nil
}

func (f *fakeLease) Release(ctx context.Context, owner string) error {
	f.held = false
	f.released++
	return nil
}

func newService(sched *fakeScheduler, lease *fakeLease) *Service {
	return &Service{
		Scheduler: sched,
		Lease:     lease,
		Schedules: DefaultSchedules,
		Logger:    zap.NewNop(),
	}
}

func TestEnsureJobTwiceYieldsOneJob(t *testing.T) {
	sched := newFakeScheduler()
	s := newService(sched, &fakeLease{})
	ctx := context.Background()

	require.NoError(t, s.EnsureJob(ctx, "refresh", "*/5 * * * *"))
	require.NoError(t, s.EnsureJob(ctx, "refresh", "*/5 * * * *"))

	jobs := sched.byName("refresh")
	require.Len(t, jobs, 1)
	assert.Equal(t, "*/5 * * * *", jobs[0].Cron)
}

func TestEnsureJobReplacesChangedCron(t *testing.T) {
	sched := newFakeScheduler()
	s := newService(sched, &fakeLease{})
	ctx := context.Background()

	require.NoError(t, s.EnsureJob(ctx, "refresh", "*/5 * * * *"))
	require.NoError(t, s.EnsureJob(ctx, "refresh", "*/10 * * * *"))

	jobs := sched.byName("refresh")
	require.Len(t, jobs, 1)
	assert.Equal(t, "*/10 * * * *", jobs[0].Cron)
}

func TestEnsureJobReapsDuplicatesKeepingNewest(t *testing.T) {
	sched := newFakeScheduler()
	ctx := context.Background()

	// two duplicates with embedded timestamps plus one legacy job without any
	old := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339Nano)
	newer := time.Now().Add(-1 * time.Hour).UTC().Format(time.RFC3339Nano)
	_, err := sched.RunJob(ctx, schedulerPort.JobInfo{Name: "refresh", Cron: "*/5 * * * *", Data: schedulerPort.JobData{"createdAt": old}})
	require.NoError(t, err)
	newestID, err := sched.RunJob(ctx, schedulerPort.JobInfo{Name: "refresh", Cron: "*/5 * * * *", Data: schedulerPort.JobData{"createdAt": newer}})
	require.NoError(t, err)
	_, err = sched.RunJob(ctx, schedulerPort.JobInfo{Name: "refresh", Cron: "*/5 * * * *", Data: schedulerPort.JobData{}})
	require.NoError(t, err)

	s := newService(sched, &fakeLease{})
	require.NoError(t, s.EnsureJob(ctx, "refresh", "*/5 * * * *"))

	jobs := sched.byName("refresh")
	require.Len(t, jobs, 1)
	assert.Equal(t, newestID, jobs[0].ID)
}

func TestEnsureJobLeavesOtherNamesAlone(t *testing.T) {
	sched := newFakeScheduler()
	ctx := context.Background()
	_, err := sched.RunJob(ctx, schedulerPort.JobInfo{Name: "other", Cron: "0 0 * * *"})
	require.NoError(t, err)

	s := newService(sched, &fakeLease{})
	require.NoError(t, s.EnsureJob(ctx, "refresh", "*/5 * * * *"))

	assert.Len(t, sched.byName("other"), 1)
	assert.Len(t, sched.byName("refresh"), 1)
}

func TestOnUpgradeRegistersAllJobs(t *testing.T) {
	sched := newFakeScheduler()
	lease := &fakeLease{}
	s := newService(sched, lease)

	require.NoError(t, s.OnUpgrade(context.Background()))
	assert.Len(t, sched.jobs, len(DefaultSchedules))
	assert.Equal(t, 1, lease.released, "lease released after the sequence")

	// re-running the upgrade produces no duplicates
	require.NoError(t, s.OnUpgrade(context.Background()))
	assert.Len(t, sched.jobs, len(DefaultSchedules))
}

func TestOnUpgradeSkipsWhenLeaseHeld(t *testing.T) {
	sched := newFakeScheduler()
	lease := &fakeLease{held: true}
	s := newService(sched, lease)

	require.NoError(t, s.OnUpgrade(context.Background()))
	assert.Empty(t, sched.jobs)
	assert.Zero(t, lease.released, "a lease we never held is not released")
}
