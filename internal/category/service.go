package category

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/google/uuid"
)

// maxEditDistance is how far a misspelling may drift and still resolve to
// an existing category.
const maxEditDistance = 2

type RepositoryAPI interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*Category, error)
	SearchByPrefix(ctx context.Context, organizationID, prefix string, limit int) ([]*Category, error)
	TopByUseCount(ctx context.Context, organizationID string, limit int) ([]*Category, error)
	IncrementUseCount(ctx context.Context, id string) error
}

// PermissionGate resolves roles for authorization checks.
type PermissionGate interface {
	Authorize(ctx context.Context, organizationID, userID string, required membership.Role) error
}

type Service struct {
	repo   RepositoryAPI
	gate   PermissionGate
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, gate PermissionGate, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		gate:   gate,
		logger: logger,
	}
}

// Resolve canonicalizes a free-form category name: an exact or near match
// (edit distance at most two) reuses the existing category, anything else
// becomes a new one. Near misses are remembered as aliases so the same typo
// resolves without another fuzzy pass.
func (s *Service) Resolve(ctx context.Context, orgID, name string) (string, error) {
	normalized := Normalize(name)
	if normalized == "" {
		return "", nil
	}

	existing, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return "", err
	}

	for _, c := range existing {
		if c.NormalizedName == normalized || c.HasAlias(normalized) {
			if err := s.repo.IncrementUseCount(ctx, c.ID); err != nil {
				s.logger.Warn("failed to bump category use count", "error", err, "category_id", c.ID)
			}
			return c.Name, nil
		}
	}

	for _, c := range existing {
		if levenshtein(c.NormalizedName, normalized) <= maxEditDistance {
			c.Aliases = append(c.Aliases, normalized)
			c.UseCount++
			c.UpdatedAt = time.Now()
			if err := s.repo.Update(ctx, c); err != nil {
				s.logger.Warn("failed to record category alias", "error", err, "category_id", c.ID)
			}
			return c.Name, nil
		}
	}

	now := time.Now()
	created := &Category{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           name,
		NormalizedName: normalized,
		UseCount:       1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		s.logger.Error("failed to create category", "error", err, "organization_id", orgID)
		return "", err
	}

	s.logger.Info("category created", "organization_id", orgID, "name", name)
	return created.Name, nil
}

// Search suggests categories matching a typed prefix.
func (s *Service) Search(ctx context.Context, orgID, actorID, prefix string) ([]*Category, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleMember); err != nil {
		return nil, err
	}
	normalized := Normalize(prefix)
	if normalized == "" {
		return []*Category{}, nil
	}
	return s.repo.SearchByPrefix(ctx, orgID, normalized, 10)
}

// TopCategories returns the most used categories for quick selection.
func (s *Service) TopCategories(ctx context.Context, orgID, actorID string, limit int) ([]*Category, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleMember); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.TopByUseCount(ctx, orgID, limit)
}
