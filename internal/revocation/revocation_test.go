package revocation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRevoke(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke() unexpected error: %v", err)
	}

	revoked, _ := m.IsRevoked(ctx, "jti-1")
	if !revoked {
		t.Error("IsRevoked(jti-1) = false, want true")
	}
	revoked, _ = m.IsRevoked(ctx, "jti-2")
	if revoked {
		t.Error("IsRevoked(jti-2) = true, want false")
	}
}

func TestMemoryIgnoresExpiredTokens(t *testing.T) {
	m := NewMemory()
	m.Revoke(context.Background(), "old", time.Now().Add(-time.Minute))

	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for already expired token", m.Len())
	}
}

func TestMemorySweep(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	m.Revoke(context.Background(), "short", now.Add(time.Minute))
	m.Revoke(context.Background(), "long", now.Add(time.Hour))

	now = now.Add(2 * time.Minute)
	if revoked, _ := m.IsRevoked(context.Background(), "short"); revoked {
		t.Error("expired entry still reported revoked")
	}

	m.Sweep()
	if m.Len() != 1 {
		t.Errorf("Len() after Sweep() = %d, want 1", m.Len())
	}
}

func TestMemoryRunStopsWithContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRedisDenylist(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL() unexpected error: %v", err)
	}
	ctx := context.Background()
	r := NewRedisWithClient(redis.NewClient(opts))
	defer r.Close()

	id := uuid.NewString()
	if revoked, err := r.IsRevoked(ctx, id); err != nil || revoked {
		t.Fatalf("IsRevoked() before revoke = %v, %v", revoked, err)
	}
	if err := r.Revoke(ctx, id, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke() unexpected error: %v", err)
	}
	if revoked, err := r.IsRevoked(ctx, id); err != nil || !revoked {
		t.Errorf("IsRevoked() after revoke = %v, %v", revoked, err)
	}
}

func TestNewRedisBadURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "not a url"); err == nil {
		t.Error("NewRedis() expected error for invalid url")
	}
}

func TestRedisUnreachableIsAnError(t *testing.T) {
	r := NewRedisWithClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer r.Close()

	revoked, err := r.IsRevoked(context.Background(), "jti-1")
	if err == nil {
		t.Fatal("IsRevoked() expected error when redis is unreachable")
	}
	if revoked {
		t.Error("IsRevoked() = true on error")
	}
}
