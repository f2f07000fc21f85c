package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRouteLocker_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	locker := NewRouteLocker(&Client{store: mock}, time.Minute)

	release, err := locker.Lock(ctx, 7)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	if _, err := locker.Lock(ctx, 7); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}

	other, err := locker.Lock(ctx, 8)
	if err != nil {
		t.Fatalf("different route should lock independently: %v", err)
	}
	defer other(ctx)

	if err := release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	again, err := locker.Lock(ctx, 7)
	if err != nil {
		t.Fatalf("lock after release failed: %v", err)
	}
	_ = again(ctx)
}

func TestRouteLocker_ReleaseKeepsForeignLease(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	locker := NewRouteLocker(client, time.Minute)

	release, err := locker.Lock(ctx, 3)
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	// Simulate expiry and takeover by another holder.
	key := client.LockKey("ruta", "3")
	mock.data[key] = "someone-else"

	if err := release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if mock.data[key] != "someone-else" {
		t.Fatalf("release must not drop another holder's lease")
	}
}
