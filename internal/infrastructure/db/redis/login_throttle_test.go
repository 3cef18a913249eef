package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs against a live server when MARINA_TEST_REDIS_ADDR is set.
func newTestThrottle(t *testing.T, maxFailures int) *LoginThrottle {
	t.Helper()

	addr := os.Getenv("MARINA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MARINA_TEST_REDIS_ADDR not set")
	}
	client, err := Connect(context.Background(), Config{Addr: addr})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewLoginThrottle(client, maxFailures, time.Minute)
}

func TestLoginThrottle(t *testing.T) {
	throttle := newTestThrottle(t, 3)
	ctx := context.Background()
	username := "throttle-" + uuid.NewString()

	for i := range 3 {
		blocked, err := throttle.Blocked(ctx, username)
		if err != nil {
			t.Fatalf("Blocked: %v", err)
		}
		if blocked {
			t.Fatalf("blocked after %d failures", i)
		}
		if err := throttle.RecordFailure(ctx, username); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	blocked, err := throttle.Blocked(ctx, username)
	if err != nil || !blocked {
		t.Fatalf("expected blocked after 3 failures, got %v (%v)", blocked, err)
	}

	if err := throttle.Reset(ctx, username); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if blocked, _ := throttle.Blocked(ctx, username); blocked {
		t.Fatal("still blocked after reset")
	}
}

func TestLoginThrottle_LockoutExpires(t *testing.T) {
	throttle := newTestThrottle(t, 1)
	throttle.lockout = time.Second
	ctx := context.Background()
	username := "throttle-" + uuid.NewString()

	if err := throttle.RecordFailure(ctx, username); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	ttl, err := throttle.client.TTL(ctx, failureKey(username)).Result()
	if err != nil || ttl <= 0 || ttl > time.Second {
		t.Fatalf("unexpected ttl %s (%v)", ttl, err)
	}
}

func TestFailureKey(t *testing.T) {
	if got, want := failureKey("user_admin"), fmt.Sprintf("login:failures:%s", "user_admin"); got != want {
		t.Fatalf("failureKey = %q, want %q", got, want)
	}
}
