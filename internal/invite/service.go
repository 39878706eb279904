package invite

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/orgfinance/internal/core/events"
	"github.com/frahmantamala/orgfinance/internal/membership"
	"github.com/google/uuid"
)

const maxCodeAttempts = 10

// Repository defines the data access methods for invite codes.
type Repository interface {
	Create(ctx context.Context, code *InviteCode) error
	GetByCode(ctx context.Context, code string) (*InviteCode, error)
	GetByID(ctx context.Context, id string) (*InviteCode, error)
	ListActiveByOrganization(ctx context.Context, organizationID string) ([]*InviteCode, error)
	Revoke(ctx context.Context, id string) error
	// ConsumeUse atomically spends one use; it fails when the code was
	// revoked or exhausted between read and update.
	ConsumeUse(ctx context.Context, id string) error
	IsDuplicateCodeError(err error) bool
}

// MembershipStore is the slice of membership persistence joining needs.
type MembershipStore interface {
	Get(ctx context.Context, organizationID, userID string) (*membership.Membership, error)
	Create(ctx context.Context, m *membership.Membership) error
	SetActive(ctx context.Context, organizationID, userID string, active bool, deactivatedAt *time.Time) error
}

// PermissionGate resolves roles for authorization checks.
type PermissionGate interface {
	Authorize(ctx context.Context, organizationID, userID string, required membership.Role) error
}

type Service struct {
	repo    Repository
	members MembershipStore
	gate    PermissionGate
	bus     *events.EventBus
	logger  *slog.Logger
}

func NewService(repo Repository, members MembershipStore, gate PermissionGate, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		members: members,
		gate:    gate,
		bus:     bus,
		logger:  logger,
	}
}

// Create mints a new invite code, retrying on the rare code collision.
func (s *Service) Create(ctx context.Context, orgID, actorID string, dto CreateInviteDTO) (*InviteCode, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleAdmin); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}

		invite := &InviteCode{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			Code:           code,
			MaxUses:        dto.MaxUses,
			ExpiresAt:      dto.ExpiresAt,
			CreatedBy:      actorID,
			CreatedAt:      time.Now(),
		}

		err = s.repo.Create(ctx, invite)
		if err == nil {
			s.logger.Info("invite code created", "organization_id", orgID, "invite_id", invite.ID)
			return invite, nil
		}
		if !s.repo.IsDuplicateCodeError(err) {
			return nil, err
		}
		lastErr = err
	}

	s.logger.Error("invite code generation kept colliding", "error", lastErr, "organization_id", orgID)
	return nil, lastErr
}

func (s *Service) ListActive(ctx context.Context, orgID, actorID string) ([]*InviteCode, error) {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListActiveByOrganization(ctx, orgID)
}

// Revoke disables an invite code without deleting its usage history.
func (s *Service) Revoke(ctx context.Context, orgID, inviteID, actorID string) error {
	if err := s.gate.Authorize(ctx, orgID, actorID, membership.RoleAdmin); err != nil {
		return err
	}

	invite, err := s.repo.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.OrganizationID != orgID {
		return ErrInviteNotFound
	}

	if err := s.repo.Revoke(ctx, inviteID); err != nil {
		s.logger.Error("failed to revoke invite", "error", err, "invite_id", inviteID)
		return err
	}

	s.logger.Info("invite code revoked", "organization_id", orgID, "invite_id", inviteID)
	return nil
}

// Join redeems a code for the calling user. A brand new user gets a member
// membership; a previously deactivated member is reactivated with their old
// role.
func (s *Service) Join(ctx context.Context, userID string, dto JoinDTO) (*membership.Membership, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	invite, err := s.repo.GetByCode(ctx, dto.Code)
	if err != nil {
		return nil, err
	}
	if err := invite.Usable(time.Now()); err != nil {
		return nil, err
	}

	existing, err := s.members.Get(ctx, invite.OrganizationID, userID)
	if err != nil && err != membership.ErrMemberNotFound {
		return nil, err
	}
	if existing != nil && existing.IsActive {
		return nil, ErrAlreadyMember
	}

	// Spend the use before writing the membership so two racers cannot
	// both squeeze through the last slot.
	if err := s.repo.ConsumeUse(ctx, invite.ID); err != nil {
		return nil, err
	}

	change := "joined"
	var joined *membership.Membership
	switch {
	case existing == nil:
		joined = &membership.Membership{
			ID:             uuid.NewString(),
			OrganizationID: invite.OrganizationID,
			UserID:         userID,
			Role:           membership.RoleMember,
			IsActive:       true,
			InvitedBy:      &invite.CreatedBy,
			CreatedAt:      time.Now(),
		}
		if err := s.members.Create(ctx, joined); err != nil {
			s.logger.Error("failed to create membership on join", "error", err,
				"organization_id", invite.OrganizationID, "user_id", userID)
			return nil, err
		}
	default:
		if err := s.members.SetActive(ctx, invite.OrganizationID, userID, true, nil); err != nil {
			s.logger.Error("failed to reactivate membership on join", "error", err,
				"organization_id", invite.OrganizationID, "user_id", userID)
			return nil, err
		}
		existing.IsActive = true
		existing.DeactivatedAt = nil
		joined = existing
		change = "reactivated"
	}

	s.logger.Info("user joined via invite",
		"organization_id", invite.OrganizationID,
		"user_id", userID,
		"invite_id", invite.ID)

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewMembershipChangedEvent(invite.OrganizationID, userID, change))
	}
	return joined, nil
}
