package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/olaemy/HomeConnectproV3-sub001/internal/repo/postgres"
)

const defaultMaxBatchSize = 100

var ErrValidation = errors.New("validation error")

type Store interface {
	InsertBatch(ctx context.Context, userID string, events []pgrepo.EventWriteRecord) error
}

// Observer sees every accepted event before it is stored.
type Observer interface {
	ObserveEvent(ctx context.Context, userID string, name string, props map[string]any) error
}

type Config struct {
	MaxBatchSize int
}

type Service struct {
	store     Store
	observers []Observer
	cfg       Config
	log       *zap.Logger
	now       func() time.Time
}

type BatchEvent struct {
	Name  string
	TS    int64
	Props map[string]any
}

func NewService(store Store, cfg Config, log *zap.Logger) *Service {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

func (s *Service) AttachObserver(observer Observer) {
	if observer == nil {
		return
	}
	s.observers = append(s.observers, observer)
}

func (s *Service) IngestBatch(ctx context.Context, userID string, events []BatchEvent) error {
	if s.store == nil {
		return fmt.Errorf("analytics store is nil")
	}
	if len(events) == 0 || len(events) > s.cfg.MaxBatchSize {
		return ErrValidation
	}

	now := s.now().UTC()
	rows := make([]pgrepo.EventWriteRecord, 0, len(events))
	for _, event := range events {
		name := strings.TrimSpace(event.Name)
		if name == "" {
			return ErrValidation
		}

		rows = append(rows, pgrepo.EventWriteRecord{
			Name:       name,
			OccurredAt: parseTS(event.TS, now),
			Props:      cloneProps(event.Props),
		})
	}

	// Observers see the batch even when the insert below fails.
	for _, row := range rows {
		for _, observer := range s.observers {
			if err := observer.ObserveEvent(ctx, userID, row.Name, row.Props); err != nil {
				s.log.Warn("observe safety event failed", zap.String("event", row.Name), zap.Error(err))
			}
		}
	}

	if err := s.store.InsertBatch(ctx, userID, rows); err != nil {
		return fmt.Errorf("insert events batch: %w", err)
	}

	return nil
}

func parseTS(ts int64, fallback time.Time) time.Time {
	if ts <= 0 {
		return fallback
	}
	if ts >= 1_000_000_000_000 {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}

func cloneProps(props map[string]any) map[string]any {
	if len(props) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(props))
	for key, value := range props {
		out[key] = value
	}
	return out
}
