package query

import (
	"context"

	"github.com/oss-sentinel/sentinel/internal/domain"
)

// Store is the read side of the history log. Port (interface) so the
// HTTP API and tests can run against fakes.
type Store interface {
	RecentLogs(ctx context.Context, limit int) ([]domain.ProbeOutcome, error)
	LatestPerService(ctx context.Context) ([]domain.ProbeOutcome, error)
	RecentFailures(ctx context.Context, limit int) ([]domain.ProbeOutcome, error)
}

// Service exposes the operator-facing query shapes. It validates limits
// and delegates; all ordering guarantees come from the store.
type Service struct {
	store        Store
	defaultLimit int
}

func New(store Store, defaultLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Service{store: store, defaultLimit: defaultLimit}
}

// Logs returns recent outcomes across all services, newest first.
func (s *Service) Logs(ctx context.Context, limit int) ([]domain.ProbeOutcome, error) {
	return s.store.RecentLogs(ctx, s.clamp(limit))
}

// Summary returns each service's most recent outcome, ordered by name.
func (s *Service) Summary(ctx context.Context) ([]domain.ProbeOutcome, error) {
	return s.store.LatestPerService(ctx)
}

// Failures returns recent FAILURE outcomes, newest first.
func (s *Service) Failures(ctx context.Context, limit int) ([]domain.ProbeOutcome, error) {
	return s.store.RecentFailures(ctx, s.clamp(limit))
}

func (s *Service) clamp(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	return limit
}
