package limiter

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestMemoryLockoutAfterMaxFails(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(time.Minute, 3, time.Minute)
	ip := HashIP("10.0.0.1")

	for i := 0; i < 2; i++ {
		blocked, _, err := l.Failure(ctx, "acc", ip)
		if err != nil {
			t.Fatalf("Failure: %v", err)
		}
		if blocked {
			t.Fatalf("blocked after %d failures", i+1)
		}
	}
	blocked, retry, err := l.Failure(ctx, "acc", ip)
	if err != nil {
		t.Fatalf("Failure: %v", err)
	}
	if !blocked || retry <= 0 {
		t.Fatalf("third failure: blocked=%v retry=%v", blocked, retry)
	}

	allowed, retry, err := l.Allow(ctx, "acc", ip)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed || retry <= 0 {
		t.Errorf("Allow during lockout: allowed=%v retry=%v", allowed, retry)
	}
}

func TestMemoryKeysIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(time.Minute, 1, time.Minute)
	ip1 := HashIP("10.0.0.1")
	ip2 := HashIP("10.0.0.2")

	if _, _, err := l.Failure(ctx, "acc", ip1); err != nil {
		t.Fatalf("Failure: %v", err)
	}
	if allowed, _, _ := l.Allow(ctx, "acc", ip1); allowed {
		t.Error("locked key still allowed")
	}
	if allowed, _, _ := l.Allow(ctx, "acc", ip2); !allowed {
		t.Error("different ip affected by lockout")
	}
	if allowed, _, _ := l.Allow(ctx, "other", ip1); !allowed {
		t.Error("different account affected by lockout")
	}
}

func TestMemorySuccessResets(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(time.Minute, 2, time.Minute)
	ip := HashIP("10.0.0.1")

	if _, _, err := l.Failure(ctx, "acc", ip); err != nil {
		t.Fatalf("Failure: %v", err)
	}
	if err := l.Success(ctx, "acc", ip); err != nil {
		t.Fatalf("Success: %v", err)
	}
	// the counter starts over
	if blocked, _, _ := l.Failure(ctx, "acc", ip); blocked {
		t.Error("blocked on the first failure after a reset")
	}
}

func TestHashIP(t *testing.T) {
	a := HashIP("10.0.0.1")
	b := HashIP("10.0.0.1")
	c := HashIP("10.0.0.2")
	if !bytes.Equal(a, b) {
		t.Error("hash not stable")
	}
	if bytes.Equal(a, c) {
		t.Error("different ips hash equal")
	}
	if bytes.Contains(a, []byte("10.0.0.1")) {
		t.Error("hash leaks the raw address")
	}
}
