package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/npolukhin/shortlink/internal/services"
)

// fakeStore хранилище кликов, отказывающее первым failures вызовам.
type fakeStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	clicks   []uint
}

func (f *fakeStore) RegisterClick(_ context.Context, linkID uint, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failures {
		return errors.New("storage is down")
	}
	f.clicks = append(f.clicks, linkID)
	return nil
}

func (f *fakeStore) snapshot() (int, []uint) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls, append([]uint(nil), f.clicks...)
}

func TestClickQueue_DispatchFullBuffer(t *testing.T) {
	store := &fakeStore{}
	q := NewClickQueue(store, 1, logrus.New())
	// воркеры не запущены: буфер никто не разгребает

	assert.True(t, q.Dispatch(services.ClickEvent{LinkID: 1}))
	assert.False(t, q.Dispatch(services.ClickEvent{LinkID: 2}))
}

func TestClickQueue_CloseDrains(t *testing.T) {
	store := &fakeStore{}
	q := NewClickQueue(store, 10, logrus.New())

	now := time.Now()
	for id := uint(1); id <= 5; id++ {
		assert.True(t, q.Dispatch(services.ClickEvent{LinkID: id, At: now}))
	}

	q.Start(2)
	q.Close()

	_, clicks := store.snapshot()
	assert.ElementsMatch(t, []uint{1, 2, 3, 4, 5}, clicks)
}

func TestClickQueue_RetriesTransientFailure(t *testing.T) {
	store := &fakeStore{failures: 2}
	q := NewClickQueue(store, 10, logrus.New())

	assert.True(t, q.Dispatch(services.ClickEvent{LinkID: 7, At: time.Now()}))

	q.Start(1)
	q.Close()

	calls, clicks := store.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, []uint{7}, clicks)
}

func TestClickQueue_DropsAfterRetryBudget(t *testing.T) {
	store := &fakeStore{failures: maxAttempts}
	q := NewClickQueue(store, 10, logrus.New())

	assert.True(t, q.Dispatch(services.ClickEvent{LinkID: 7, At: time.Now()}))

	q.Start(1)
	q.Close()

	calls, clicks := store.snapshot()
	assert.Equal(t, maxAttempts, calls)
	assert.Empty(t, clicks)
}

func TestClickQueue_CloseIsIdempotent(t *testing.T) {
	q := NewClickQueue(&fakeStore{}, 1, logrus.New())
	q.Start(1)

	q.Close()
	assert.NotPanics(t, func() { q.Close() })
}
