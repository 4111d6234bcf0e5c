package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLimiterWindowExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	limiter := Limiter{Client: client, Prefix: "rl:"}
	ctx := context.Background()
	window := 2 * time.Second

	for want := 1; want >= 0; want-- {
		allowed, remaining, _, err := limiter.Allow(ctx, "apply", window, 2)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request within limit rejected, remaining %d", remaining)
		}
		if remaining != want {
			t.Fatalf("expected remaining %d, got %d", want, remaining)
		}
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "apply", window, 2)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed || remaining != 0 {
		t.Fatalf("expected rejection at limit, allowed=%v remaining=%d", allowed, remaining)
	}

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "apply", window, 2)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed {
		t.Fatal("window should have slid past earlier events")
	}
}

func TestLimiterDisabledWithoutClient(t *testing.T) {
	allowed, _, _, err := Limiter{}.Allow(context.Background(), "apply", time.Second, 5)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !allowed {
		t.Fatal("nil client should disable limiting")
	}
}
