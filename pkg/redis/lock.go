package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another request")

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	LockKey(scope, id string) string
}

// RouteLocker serializes edits of a single route across API instances.
type RouteLocker struct {
	store lockStore
	ttl   time.Duration
}

// NewRouteLocker builds a locker whose leases expire after ttl.
func NewRouteLocker(client *Client, ttl time.Duration) *RouteLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RouteLocker{store: client, ttl: ttl}
}

// Lock takes the route's lease or fails fast with ErrLockHeld. The returned
// func releases the lease if it is still ours.
func (l *RouteLocker) Lock(ctx context.Context, routeID int64) (func(context.Context) error, error) {
	key := l.store.LockKey("ruta", strconv.FormatInt(routeID, 10))
	token := uuid.NewString()

	ok, err := l.store.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func(releaseCtx context.Context) error {
		_, err := l.store.DelIfValue(releaseCtx, key, token)
		return err
	}, nil
}
