package portfoliogate

import (
	"testing"
	"time"
)

func TestLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestLimiterIsPerIP(t *testing.T) {
	limiter := NewLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestLimiterCheckRecordReset(t *testing.T) {
	limiter := NewLimiter(2, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.40"

	if !limiter.Check(ip) {
		t.Fatalf("expected check to pass before any failure")
	}
	limiter.Record(ip)
	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected check to fail after two failures")
	}
	limiter.Reset(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected check to pass after reset")
	}
}

func TestLimiterDisabled(t *testing.T) {
	limiter := NewLimiter(0, time.Minute)
	defer limiter.Stop()
	for i := 0; i < 100; i++ {
		if !limiter.Allow("203.0.113.50") {
			t.Fatalf("disabled limiter blocked attempt %d", i)
		}
	}
	limiter.Stop()
}
