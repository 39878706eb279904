package organization

import (
	"errors"
	"time"
)

type Organization struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description *string   `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id" gorm:"column:owner_id;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Domain errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrNewOwnerNotMember    = errors.New("new owner must be an active member of the organization")
	ErrTransferToSelf       = errors.New("ownership is already held by this user")
	ErrNotOwner             = errors.New("only the organization owner can perform this action")
)
