package evidence

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/olaemy/HomeConnectproV3-sub001/internal/domain/model"
)

const defaultURLTTL = 5 * time.Minute

var ErrValidation = errors.New("validation error")

type Signer interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Link struct {
	Ref string `json:"ref"`
	URL string `json:"url,omitempty"`
}

type ReportView struct {
	model.SafetyReport
	EvidenceLinks []Link `json:"evidence_links"`
}

type Service struct {
	signer Signer
	ttl    time.Duration
	log    *zap.Logger
}

func NewService(signer Signer, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		signer: signer,
		ttl:    ttl,
		log:    log,
	}
}

// Resolve turns evidence references into links. Absolute http(s) URLs pass
// through; object keys are presigned. A key that cannot be signed keeps an
// empty URL so moderators still see the reference.
func (s *Service) Resolve(ctx context.Context, refs []string) []Link {
	out := make([]Link, 0, len(refs))
	for _, ref := range refs {
		trimmed := strings.TrimSpace(ref)
		if trimmed == "" {
			continue
		}
		out = append(out, Link{Ref: trimmed, URL: s.url(ctx, trimmed)})
	}
	return out
}

func (s *Service) Reports(ctx context.Context, reports []model.SafetyReport) []ReportView {
	out := make([]ReportView, 0, len(reports))
	for _, report := range reports {
		out = append(out, ReportView{
			SafetyReport:  report,
			EvidenceLinks: s.Resolve(ctx, report.Evidence),
		})
	}
	return out
}

func (s *Service) url(ctx context.Context, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if s.signer == nil {
		return ""
	}

	signed, err := s.signer.PresignGet(ctx, ref, s.ttl)
	if err != nil {
		s.log.Warn("presign evidence failed", zap.String("key", ref), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(signed)
}
