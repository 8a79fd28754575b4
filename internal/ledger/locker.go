package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/metrics"
)

// Locker serializes ledger mutations per account. Acquisition waits at most
// the configured timeout and then fails fast with ErrLockTimeout; a silent
// retry on top of a half-applied balance shift would corrupt state.
type Locker struct {
	mu      sync.Mutex
	sems    map[string]*semaphore.Weighted
	timeout time.Duration
}

func NewLocker(timeout time.Duration) *Locker {
	return &Locker{
		sems:    make(map[string]*semaphore.Weighted),
		timeout: timeout,
	}
}

// Acquire takes the exclusive lock for ref. The returned release function
// must be called exactly once.
func (l *Locker) Acquire(ctx context.Context, ref domain.AccountRef) (func(), error) {
	sem := l.sem(ref.String())

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := sem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.LedgerLockTimeouts.Inc()
			return nil, fmt.Errorf("Acquire %s: %w", ref, domain.ErrLockTimeout)
		}
		return nil, fmt.Errorf("Acquire %s: %w", ref, err)
	}
	return func() { sem.Release(1) }, nil
}

func (l *Locker) sem(key string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[key] = sem
	}
	return sem
}
