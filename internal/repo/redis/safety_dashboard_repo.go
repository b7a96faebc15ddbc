package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	CounterReports24hKey     = "safety:cnt:reports:24h"
	CounterBlocks24hKey      = "safety:cnt:blocks:24h"
	CounterSuspensions24hKey = "safety:cnt:suspensions:24h"
	GateHidden24hKey         = "safety:gate:hidden:24h"

	TopReported24hKey = "safety:zset:reported:24h"
	TopBlocked24hKey  = "safety:zset:blocked:24h"
	TopHidden24hKey   = "safety:zset:hidden:24h"

	dashboardTTL = 24 * time.Hour
)

type SafetyDashboardRepo struct {
	client *goredis.Client
}

type SafetySummary struct {
	Reports24h     int64            `json:"reports_24h"`
	Blocks24h      int64            `json:"blocks_24h"`
	Suspensions24h int64            `json:"suspensions_24h"`
	HiddenByReason map[string]int64 `json:"hidden_by_reason"`
}

type TopUserItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

func NewSafetyDashboardRepo(client *goredis.Client) *SafetyDashboardRepo {
	return &SafetyDashboardRepo{client: client}
}

// ObserveEvent folds safety telemetry into the 24h counters. Other events are
// ignored.
func (r *SafetyDashboardRepo) ObserveEvent(ctx context.Context, _ string, name string, props map[string]any) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "safety_report_filed":
		if err := r.incrementTop(ctx, TopReported24hKey, propString(props, "reported_user_id")); err != nil {
			return err
		}
		return r.incrementCounter(ctx, CounterReports24hKey)
	case "safety_user_blocked":
		if err := r.incrementTop(ctx, TopBlocked24hKey, propString(props, "blocked_user_id")); err != nil {
			return err
		}
		return r.incrementCounter(ctx, CounterBlocks24hKey)
	case "safety_account_status_changed":
		if propString(props, "to") != "suspended" {
			return nil
		}
		return r.incrementCounter(ctx, CounterSuspensions24hKey)
	default:
		return nil
	}
}

// ObserveGateDecision counts one hidden card for userID under reason.
func (r *SafetyDashboardRepo) ObserveGateDecision(ctx context.Context, userID, reason string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil
	}

	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, GateHidden24hKey, reason, 1)
	pipe.Expire(ctx, GateHidden24hKey, dashboardTTL)
	if userID = strings.TrimSpace(userID); userID != "" {
		pipe.ZIncrBy(ctx, TopHidden24hKey, 1, userID)
		pipe.Expire(ctx, TopHidden24hKey, dashboardTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record gate decision: %w", err)
	}
	return nil
}

func (r *SafetyDashboardRepo) Summary(ctx context.Context) (SafetySummary, error) {
	if r.client == nil {
		return SafetySummary{}, fmt.Errorf("redis client is nil")
	}

	reports, err := r.counterValue(ctx, CounterReports24hKey)
	if err != nil {
		return SafetySummary{}, err
	}
	blocks, err := r.counterValue(ctx, CounterBlocks24hKey)
	if err != nil {
		return SafetySummary{}, err
	}
	suspensions, err := r.counterValue(ctx, CounterSuspensions24hKey)
	if err != nil {
		return SafetySummary{}, err
	}

	raw, err := r.client.HGetAll(ctx, GateHidden24hKey).Result()
	if err != nil {
		return SafetySummary{}, fmt.Errorf("read gate counters: %w", err)
	}
	hidden := make(map[string]int64, len(raw))
	for reason, value := range raw {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return SafetySummary{}, fmt.Errorf("parse gate counter %s: %w", reason, err)
		}
		hidden[reason] = count
	}

	return SafetySummary{
		Reports24h:     reports,
		Blocks24h:      blocks,
		Suspensions24h: suspensions,
		HiddenByReason: hidden,
	}, nil
}

func (r *SafetyDashboardRepo) Top(ctx context.Context, kind string, limit int64) ([]TopUserItem, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	key, ok := topKeyByKind(kind)
	if !ok {
		return nil, fmt.Errorf("invalid top users kind")
	}

	pairs, err := r.client.ZRevRangeWithScores(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read top users: %w", err)
	}

	items := make([]TopUserItem, 0, len(pairs))
	for _, pair := range pairs {
		member, ok := pair.Member.(string)
		if !ok {
			member = fmt.Sprint(pair.Member)
		}
		items = append(items, TopUserItem{
			ID:    member,
			Score: pair.Score,
		})
	}
	return items, nil
}

func (r *SafetyDashboardRepo) incrementCounter(ctx context.Context, key string) error {
	pipe := r.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, dashboardTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment counter %s: %w", key, err)
	}
	return nil
}

func (r *SafetyDashboardRepo) incrementTop(ctx context.Context, key, member string) error {
	if member == "" {
		return nil
	}
	pipe := r.client.Pipeline()
	pipe.ZIncrBy(ctx, key, 1, member)
	pipe.Expire(ctx, key, dashboardTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment top users %s: %w", key, err)
	}
	return nil
}

func (r *SafetyDashboardRepo) counterValue(ctx context.Context, key string) (int64, error) {
	value, err := r.client.Get(ctx, key).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", key, err)
	}
	return value, nil
}

func topKeyByKind(kind string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "reported":
		return TopReported24hKey, true
	case "blocked":
		return TopBlocked24hKey, true
	case "hidden":
		return TopHidden24hKey, true
	default:
		return "", false
	}
}

func propString(props map[string]any, key string) string {
	if len(props) == 0 {
		return ""
	}
	raw, ok := props[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
