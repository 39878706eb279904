package organization

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/orgfinance/internal/core/events"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/google/uuid"
)

// Repository defines the data access methods for organizations. Create and
// TransferOwnership span two tables and must execute as one transaction.
type Repository interface {
	Create(ctx context.Context, org *Organization, owner *membership.Membership) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	ListForUser(ctx context.Context, userID string) ([]*Organization, error)
	SearchByName(ctx context.Context, query string, limit int) ([]*Organization, error)
	Update(ctx context.Context, org *Organization) error
	Delete(ctx context.Context, id string) error
	TransferOwnership(ctx context.Context, orgID, currentOwnerID, newOwnerID string) error
}

// PermissionGate resolves roles for authorization checks.
type PermissionGate interface {
	Authorize(ctx context.Context, organizationID, userID string, required membership.Role) error
	RequireOwner(ctx context.Context, organizationID, userID string) error
}

// MembershipReader looks up memberships during ownership transfer.
type MembershipReader interface {
	GetActive(ctx context.Context, organizationID, userID string) (*membership.Membership, error)
}

type Service struct {
	repo    Repository
	gate    PermissionGate
	members MembershipReader
	bus     *events.EventBus
	logger  *slog.Logger
}

func NewService(repo Repository, gate PermissionGate, members MembershipReader, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		gate:    gate,
		members: members,
		bus:     bus,
		logger:  logger,
	}
}

// Create inserts the organization and seeds the creator as its owner in one
// transaction, so a failed membership insert leaves no orphan organization.
func (s *Service) Create(ctx context.Context, actorID string, dto CreateOrganizationDTO) (*Organization, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	org := &Organization{
		ID:          uuid.NewString(),
		Name:        dto.Name,
		Description: dto.Description,
		OwnerID:     actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := &membership.Membership{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		UserID:         actorID,
		Role:           membership.RoleOwner,
		IsActive:       true,
		CreatedAt:      now,
	}

	if err := s.repo.Create(ctx, org, owner); err != nil {
		s.logger.Error("failed to create organization", "error", err, "user_id", actorID)
		return nil, err
	}

	s.logger.Info("organization created", "organization_id", org.ID, "owner_id", actorID)
	return org, nil
}

func (s *Service) Get(ctx context.Context, orgID, actorID string) (*Organization, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleMember); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, orgID)
}

func (s *Service) ListMine(ctx context.Context, actorID string) ([]*Organization, error) {
	orgs, err := s.repo.ListForUser(ctx, actorID)
	if err != nil {
		s.logger.Error("failed to list organizations", "error", err, "user_id", actorID)
		return nil, err
	}
	return orgs, nil
}

// Search finds organizations by name for the join flow. Any authenticated
// user may search.
func (s *Service) Search(ctx context.Context, query string) ([]*Organization, error) {
	if len(query) == 0 {
		return []*Organization{}, nil
	}
	return s.repo.SearchByName(ctx, query, 10)
}

func (s *Service) Update(ctx context.Context, orgID, actorID string, dto UpdateOrganizationDTO) (*Organization, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleAdmin); err != nil {
		return nil, err
	}

	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	org.Name = dto.Name
	org.Description = dto.Description
	org.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, org); err != nil {
		s.logger.Error("failed to update organization", "error", err, "organization_id", orgID)
		return nil, err
	}

	s.logger.Info("organization updated", "organization_id", orgID, "actor_id", actorID)
	return org, nil
}

// Delete removes the organization wholesale; related rows cascade at the
// database level. Owner only.
func (s *Service) Delete(ctx context.Context, orgID, actorID string) error {
	if err := s.gate.RequireOwner(ctx, orgID, actorID); err != nil {
		return err
	}

	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if org.OwnerID != actorID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, orgID); err != nil {
		s.logger.Error("failed to delete organization", "error", err, "organization_id", orgID)
		return err
	}

	s.logger.Info("organization deleted", "organization_id", orgID, "actor_id", actorID)
	return nil
}

// TransferOwnership demotes the current owner to admin and promotes the
// target to owner as one transaction: there is exactly one owner before and
// after, and a failure of any sub-write rolls the whole transfer back.
func (s *Service) TransferOwnership(ctx context.Context, orgID, actorID string, dto TransferOwnershipDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if org.OwnerID != actorID {
		return ErrNotOwner
	}
	if dto.NewOwnerID == actorID {
		return ErrTransferToSelf
	}

	if _, err := s.members.GetActive(ctx, orgID, dto.NewOwnerID); err != nil {
		return ErrNewOwnerNotMember
	}

	if err := s.repo.TransferOwnership(ctx, orgID, actorID, dto.NewOwnerID); err != nil {
		s.logger.Error("ownership transfer failed", "error", err,
			"organization_id", orgID,
			"current_owner_id", actorID,
			"new_owner_id", dto.NewOwnerID)
		return err
	}

	s.logger.Info("ownership transferred",
		"organization_id", orgID,
		"previous_owner_id", actorID,
		"new_owner_id", dto.NewOwnerID)

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewMembershipChangedEvent(orgID, dto.NewOwnerID, "ownership_transferred"))
	}
	return nil
}
