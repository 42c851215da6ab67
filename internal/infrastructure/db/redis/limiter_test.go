package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSlidingWindowLimiter_Budget(t *testing.T) {
	_, client := newTestRedis(t)
	l := NewSlidingWindowLimiter(client, 3, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(context.Background(), "10.0.0.1")
		if err != nil || !ok {
			t.Fatalf("attempt %d: ok=%v err=%v", i+1, ok, err)
		}
		now = now.Add(time.Second)
	}

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	if err != nil || ok {
		t.Fatalf("fourth attempt should be throttled, ok=%v err=%v", ok, err)
	}

	// Other clients have their own window.
	if ok, _ := l.Allow(context.Background(), "10.0.0.2"); !ok {
		t.Fatalf("unrelated key throttled")
	}
}

func TestSlidingWindowLimiter_WindowSlides(t *testing.T) {
	_, client := newTestRedis(t)
	l := NewSlidingWindowLimiter(client, 2, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "k") // t=0
	now = now.Add(30 * time.Second)
	_, _ = l.Allow(context.Background(), "k") // t=30s

	now = now.Add(20 * time.Second) // t=50s, both still inside the window
	if ok, _ := l.Allow(context.Background(), "k"); ok {
		t.Fatalf("expected throttle at t=50s")
	}

	now = now.Add(85 * time.Second) // t=135s, every earlier attempt has aged out
	if ok, _ := l.Allow(context.Background(), "k"); !ok {
		t.Fatalf("expected window to slide")
	}
}

func TestSlidingWindowLimiter_SetsExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewSlidingWindowLimiter(client, 5, time.Minute)

	_, _ = l.Allow(context.Background(), "k")
	if ttl := mr.TTL(loginKeyPrefix + "k"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestSlidingWindowLimiter_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewSlidingWindowLimiter(client, 5, time.Minute)
	mr.Close()

	if _, err := l.Allow(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
