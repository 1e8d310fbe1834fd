package recommendation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"landedcost/internal/apperr"
	"landedcost/internal/models"
	"landedcost/internal/repository"
)

const (
	StatusPending     = "pending"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
	StatusImplemented = "implemented"
)

var transitions = map[string][]string{
	StatusAccepted:    {StatusPending},
	StatusRejected:    {StatusPending, StatusAccepted},
	StatusImplemented: {StatusAccepted},
}

// AllowedFrom lists the statuses a recommendation may move to `to` from.
func AllowedFrom(to string) []string {
	return transitions[to]
}

// Manager applies operator status changes and archives settled recommendations.
type Manager struct {
	Repo         repository.RecommendationRepository
	ArchiveAfter time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func (m *Manager) UpdateStatus(ctx context.Context, id, to string) (*models.OptimizationRecommendation, error) {
	if m == nil || m.Repo == nil {
		return nil, errors.New("recommendation repo unavailable")
	}
	from := AllowedFrom(to)
	if len(from) == 0 {
		return nil, apperr.Invalid("status", "unsupported target status %q", to)
	}
	ok, err := m.Repo.UpdateRecommendationStatus(ctx, id, from, to, m.now())
	if err != nil {
		return nil, err
	}
	current, err := m.Repo.GetRecommendation(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("recommendation", id)
	}
	if !ok {
		return nil, apperr.Conflict("recommendation", id, current.Status, to)
	}
	return current, nil
}

// Archive hides rejected and implemented recommendations whose last status change is older than ArchiveAfter.
func (m *Manager) Archive(ctx context.Context) (int64, error) {
	if m == nil || m.Repo == nil || m.ArchiveAfter <= 0 {
		return 0, nil
	}
	now := m.now()
	n, err := m.Repo.ArchiveRecommendations(ctx, []string{StatusRejected, StatusImplemented}, now.Add(-m.ArchiveAfter), now)
	if err != nil {
		return 0, err
	}
	if n > 0 && m.Logger != nil {
		m.Logger.Info("recommendations archived", zap.Int64("count", n))
	}
	return n, nil
}
