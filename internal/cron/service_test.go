package cron

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/metrics"
)

type fakeLockStore struct {
	mu   sync.Mutex
	held map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{held: map[string]string{}}
}

func (f *fakeLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.held[key]; ok {
		return false, nil
	}
	f.held[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[key], nil
}

func (f *fakeLockStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.held, key)
	}
	return nil
}

func (f *fakeLockStore) LockKey(name string) string { return "dna:lock:" + name }

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestLockAcquireAndRelease(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewLock(store, time.Minute)
	require.NoError(t, err)

	release, acquired, err := lock.Acquire(context.Background(), "calendar_sync")
	require.NoError(t, err)
	require.True(t, acquired)

	// second holder is rejected while the lock is live
	_, again, err := lock.Acquire(context.Background(), "calendar_sync")
	require.NoError(t, err)
	require.False(t, again)

	release()
	_, retaken, err := lock.Acquire(context.Background(), "calendar_sync")
	require.NoError(t, err)
	require.True(t, retaken)
}

func TestRunAllExecutesJobsUnderLock(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewLock(store, time.Minute)
	require.NoError(t, err)

	ok := &countingJob{name: "retention"}
	failing := &countingJob{name: "flaky", err: errors.New("boom")}
	svc, err := NewService([]Job{ok, failing}, lock, time.Minute, metrics.NewCronJobMetrics(nil), testLogger())
	require.NoError(t, err)

	svc.runAll(context.Background())
	require.Equal(t, 1, ok.runs)
	require.Equal(t, 1, failing.runs)

	// a failed run still releases its lock
	svc.runAll(context.Background())
	require.Equal(t, 2, failing.runs)
}

func TestRunAllSkipsHeldJob(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewLock(store, time.Minute)
	require.NoError(t, err)

	job := &countingJob{name: "calendar_sync"}
	svc, err := NewService([]Job{job}, lock, time.Minute, metrics.NewCronJobMetrics(nil), testLogger())
	require.NoError(t, err)

	// another worker already holds the lock
	store.held[store.LockKey("calendar_sync")] = "other-worker"
	svc.runAll(context.Background())
	require.Equal(t, 0, job.runs)
}

type fakeTrimmer struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakeTrimmer) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestNotificationRetentionJobUsesConfiguredWindow(t *testing.T) {
	trimmer := &fakeTrimmer{deleted: 7}
	job := NewNotificationRetentionJob(trimmer, 48*time.Hour, testLogger())

	require.NoError(t, job.Run(context.Background()))
	require.WithinDuration(t, time.Now().UTC().Add(-48*time.Hour), trimmer.cutoff, time.Minute)
}
