package invite

import (
	"errors"
	"time"
)

// CreateInviteDTO configures a new invite code. MaxUses nil means unlimited.
type CreateInviteDTO struct {
	MaxUses   *int       `json:"max_uses,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (dto CreateInviteDTO) Validate() error {
	if dto.MaxUses != nil && *dto.MaxUses < 1 {
		return errors.New("max_uses must be at least 1")
	}
	if dto.ExpiresAt != nil && dto.ExpiresAt.Before(time.Now()) {
		return errors.New("expires_at must be in the future")
	}
	return nil
}

// JoinDTO carries the code a user redeems to join an organization.
type JoinDTO struct {
	Code string `json:"code"`
}

func (dto *JoinDTO) Validate() error {
	dto.Code = NormalizeCode(dto.Code)
	if len(dto.Code) != codeLength {
		return errors.New("invite code must be 12 characters")
	}
	return nil
}
