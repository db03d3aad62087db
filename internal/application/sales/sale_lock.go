package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/focusvent/backend/internal/domain/shared"
)

// UnlockFunc releases a sale lock. Calling it more than once is a no-op.
type UnlockFunc func(ctx context.Context) error

// SaleLocker serializes batches that target the same sale.
// Lock blocks until the sale is free, ctx is done or the implementation's wait
// limit passes, in which case the error wraps shared.ErrLockTimeout.
type SaleLocker interface {
	Lock(ctx context.Context, saleID int64) (UnlockFunc, error)
}

// NoopSaleLocker never blocks; row locks and the conflict-safe insert still apply
type NoopSaleLocker struct{}

// Lock returns immediately
func (NoopSaleLocker) Lock(context.Context, int64) (UnlockFunc, error) {
	return func(context.Context) error { return nil }, nil
}

// LocalSaleLocker is an in-process keyed mutex. It only serializes batches
// handled by the same process.
type LocalSaleLocker struct {
	mu    sync.Mutex
	slots map[int64]*saleSlot
	wait  time.Duration
}

type saleSlot struct {
	token chan struct{}
	refs  int
}

// NewLocalSaleLocker creates a LocalSaleLocker. A zero wait means callers wait
// until their context is done.
func NewLocalSaleLocker(wait time.Duration) *LocalSaleLocker {
	return &LocalSaleLocker{
		slots: make(map[int64]*saleSlot),
		wait:  wait,
	}
}

// Lock acquires the lock for saleID
func (l *LocalSaleLocker) Lock(ctx context.Context, saleID int64) (UnlockFunc, error) {
	slot := l.acquireSlot(saleID)

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case slot.token <- struct{}{}:
		var once sync.Once
		return func(context.Context) error {
			once.Do(func() {
				<-slot.token
				l.releaseSlot(saleID, slot)
			})
			return nil
		}, nil
	case <-ctx.Done():
		l.releaseSlot(saleID, slot)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: sale %d", shared.ErrLockTimeout, saleID)
		}
		return nil, ctx.Err()
	}
}

func (l *LocalSaleLocker) acquireSlot(saleID int64) *saleSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[saleID]
	if !ok {
		slot = &saleSlot{token: make(chan struct{}, 1)}
		l.slots[saleID] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalSaleLocker) releaseSlot(saleID int64, slot *saleSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, saleID)
	}
}

var _ SaleLocker = NoopSaleLocker{}
var _ SaleLocker = (*LocalSaleLocker)(nil)
