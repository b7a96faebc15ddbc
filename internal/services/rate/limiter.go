package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	reports10MinWindow = 10 * time.Minute
	reportsDayWindow   = 24 * time.Hour
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter throttles report intake per reporter. A zero limit disables its
// window.
type Limiter struct {
	store    WindowStore
	per10Min int
	perDay   int
}

func NewLimiter(store WindowStore, per10Min, perDay int) *Limiter {
	if per10Min < 0 {
		per10Min = 0
	}
	if perDay < 0 {
		perDay = 0
	}

	return &Limiter{
		store:    store,
		per10Min: per10Min,
		perDay:   perDay,
	}
}

// AllowReport counts one report for reporterID and returns the seconds to
// wait when any window is exhausted.
func (l *Limiter) AllowReport(ctx context.Context, reporterID string) (int64, bool, error) {
	reporterID = strings.TrimSpace(reporterID)
	if reporterID == "" {
		return 0, false, fmt.Errorf("invalid reporter id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, window := range l.windows(reporterID) {
		count, ttl, err := l.store.IncrementWindow(ctx, window.key, window.size)
		if err != nil {
			return 0, false, err
		}
		if count > int64(window.limit) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

// RetryAfterReport reads the windows without counting.
func (l *Limiter) RetryAfterReport(ctx context.Context, reporterID string) (int64, error) {
	reporterID = strings.TrimSpace(reporterID)
	if reporterID == "" {
		return 0, fmt.Errorf("invalid reporter id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, window := range l.windows(reporterID) {
		count, ttl, err := l.store.WindowState(ctx, window.key)
		if err != nil {
			return 0, err
		}
		if count >= int64(window.limit) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

type window struct {
	key   string
	size  time.Duration
	limit int
}

func (l *Limiter) windows(reporterID string) []window {
	out := make([]window, 0, 2)
	if l.per10Min > 0 {
		out = append(out, window{key: "rate:reports:10m:" + reporterID, size: reports10MinWindow, limit: l.per10Min})
	}
	if l.perDay > 0 {
		out = append(out, window{key: "rate:reports:day:" + reporterID, size: reportsDayWindow, limit: l.perDay})
	}
	return out
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
