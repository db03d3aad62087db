package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	appsales "github.com/focusvent/backend/internal/application/sales"
	"github.com/focusvent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSaleLockPrefix = "sale:lock:"

// ErrLockLost is returned on release when the lease expired and the key no
// longer holds this holder's token
var ErrLockLost = errors.New("sale lock lease expired before release")

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSaleLocker serializes batches for the same sale across processes using
// a leased Redis key (SET NX PX) owned by a random token.
type RedisSaleLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	wait      time.Duration
	retry     time.Duration
}

// RedisSaleLockerOption configures a RedisSaleLocker
type RedisSaleLockerOption func(*RedisSaleLocker)

// WithKeyPrefix overrides the key prefix
func WithKeyPrefix(prefix string) RedisSaleLockerOption {
	return func(l *RedisSaleLocker) {
		l.keyPrefix = prefix
	}
}

// WithRetryInterval sets how often a waiting caller retries the acquire
func WithRetryInterval(d time.Duration) RedisSaleLockerOption {
	return func(l *RedisSaleLocker) {
		l.retry = d
	}
}

// NewRedisSaleLocker creates a locker whose leases last ttl and whose callers
// give up after wait. A zero wait means callers wait until their context is done.
func NewRedisSaleLocker(client *redis.Client, ttl, wait time.Duration, opts ...RedisSaleLockerOption) *RedisSaleLocker {
	l := &RedisSaleLocker{
		client:    client,
		keyPrefix: defaultSaleLockPrefix,
		ttl:       ttl,
		wait:      wait,
		retry:     25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.retry <= 0 {
		l.retry = 25 * time.Millisecond
	}
	return l
}

// Lock acquires the lease for saleID, polling until it is free
func (l *RedisSaleLocker) Lock(ctx context.Context, saleID int64) (appsales.UnlockFunc, error) {
	key := l.keyPrefix + strconv.FormatInt(saleID, 10)
	token := uuid.NewString()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	// contended is set once Redis answers that another holder has the key;
	// lastErr keeps the most recent failed SETNX round trip.
	var (
		contended bool
		lastErr   error
	)
	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		switch {
		case err == nil && acquired:
			return l.unlocker(key, token), nil
		case err == nil:
			contended, lastErr = true, nil
		case !isContextErr(err):
			return nil, shared.NewStorageError(fmt.Sprintf("acquire sale %d lock", saleID), err)
		default:
			lastErr = err
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ctx.Err()
			}
			if lastErr != nil && !contended {
				return nil, shared.NewStorageError(fmt.Sprintf("acquire sale %d lock", saleID), lastErr)
			}
			return nil, fmt.Errorf("%w: sale %d", shared.ErrLockTimeout, saleID)
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func (l *RedisSaleLocker) unlocker(key, token string) appsales.UnlockFunc {
	var (
		once sync.Once
		err  error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			var released int64
			released, err = releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
			if err == nil && released == 0 {
				err = ErrLockLost
			}
		})
		return err
	}
}

var _ appsales.SaleLocker = (*RedisSaleLocker)(nil)
