package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (s *countingSweeper) Today() time.Time {
	return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
}

func (s *countingSweeper) AdvanceCompletions(_ context.Context, asOf time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, asOf)
	return 1, s.err
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestCompletionRunsUntilCancelled(t *testing.T) {
	sw := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Completion{Sweeper: sw, Interval: 10 * time.Millisecond}.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sw.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, sw.Today(), sw.calls[0])
}

func TestCompletionSurvivesErrors(t *testing.T) {
	sw := &countingSweeper{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Completion{Sweeper: sw, Interval: 10 * time.Millisecond}.Run(ctx)
	assert.Eventually(t, func() bool { return sw.count() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestCompletionDisabled(t *testing.T) {
	sw := &countingSweeper{}
	Completion{Sweeper: sw}.Run(context.Background())
	assert.Equal(t, 0, sw.count())
}
