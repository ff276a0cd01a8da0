package rfc7234

import (
	"net/http"
	"testing"
	"time"
)

func TestFreshnessLifetimeMaxAgeWins(t *testing.T) {
	h := http.Header{}
	h.Set("Cache-Control", "max-age=60")
	h.Set("Expires", formatHTTPDate(time.Now().Add(time.Hour)))
	if got := FreshnessLifetime(h, time.Now()); got != 60*time.Second {
		t.Fatalf("expected max-age to win over Expires, got %v", got)
	}
}

func TestFreshnessLifetimeFallsBackToExpires(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := http.Header{}
	h.Set("Expires", formatHTTPDate(date.Add(10*time.Minute)))
	if got := FreshnessLifetime(h, date); got != 10*time.Minute {
		t.Fatalf("expected 10m, got %v", got)
	}
}

func TestFreshnessLifetimeNoneIsNegative(t *testing.T) {
	if got := FreshnessLifetime(http.Header{}, time.Now()); got >= 0 {
		t.Fatalf("expected negative sentinel for no explicit freshness, got %v", got)
	}
}

func TestCurrentAgeAccumulatesResidentTime(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := date
	resp := date
	now := date.Add(5 * time.Minute)
	got := CurrentAge(http.Header{}, date, req, resp, now)
	if got != 5*time.Minute {
		t.Fatalf("expected 5m resident age, got %v", got)
	}
}

func TestHeuristicFreshnessLifetimeDefaultsTo300sWithoutLastModified(t *testing.T) {
	h := http.Header{}
	got := HeuristicFreshnessLifetime(200, h, time.Now())
	if got != 300*time.Second {
		t.Fatalf("expected 300s default, got %v", got)
	}
}

func TestHeuristicFreshnessLifetimeCapsAt300s(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := http.Header{}
	h.Set("Last-Modified", formatHTTPDate(date.Add(-30*24*time.Hour)))
	got := HeuristicFreshnessLifetime(200, h, date)
	if got != 300*time.Second {
		t.Fatalf("expected capped 300s, got %v", got)
	}
}

func TestHeuristicFreshnessLifetimeTenPercentUnderCap(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := http.Header{}
	h.Set("Last-Modified", formatHTTPDate(date.Add(-100*time.Second)))
	got := HeuristicFreshnessLifetime(200, h, date)
	if got != 10*time.Second {
		t.Fatalf("expected 10s (10%% of 100s), got %v", got)
	}
}

func TestIsFresh(t *testing.T) {
	if !IsFresh(time.Minute, 30*time.Second) {
		t.Fatal("expected fresh when age < lifetime")
	}
	if IsFresh(time.Minute, 2*time.Minute) {
		t.Fatal("expected stale when age > lifetime")
	}
}
