package membership

import (
	"errors"
	"time"
)

// Role is the membership role inside one organization. The hierarchy is
// total: owner outranks admin outranks member.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

var roleRank = map[Role]int{
	RoleOwner:  3,
	RoleAdmin:  2,
	RoleMember: 1,
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the numeric rank of the role; unknown roles rank zero.
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r ranks at or above required.
func (r Role) AtLeast(required Role) bool {
	return r.Rank() >= required.Rank()
}

// Membership ties a user to an organization. Members are soft-deleted via
// IsActive so historical transactions keep valid references.
type Membership struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	OrganizationID string     `json:"organization_id" gorm:"column:organization_id;not null;uniqueIndex:idx_org_user"`
	UserID         string     `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_org_user"`
	Role           Role       `json:"role" gorm:"column:role;not null"`
	IsActive       bool       `json:"is_active" gorm:"column:is_active;default:true"`
	InvitedBy      *string    `json:"invited_by,omitempty" gorm:"column:invited_by"`
	DeactivatedAt  *time.Time `json:"deactivated_at,omitempty" gorm:"column:deactivated_at"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Membership) TableName() string {
	return "organization_members"
}

// MemberView is a membership joined with user display fields for listings.
type MemberView struct {
	Membership
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Domain errors
var (
	ErrNotAMember          = errors.New("caller is not an active member of this organization")
	ErrMemberNotFound      = errors.New("member not found in this organization")
	ErrInsufficientRole    = errors.New("insufficient role for this action")
	ErrOwnerOnly           = errors.New("only the organization owner can perform this action")
	ErrCannotTargetSelf    = errors.New("cannot perform this action on yourself")
	ErrOwnerImmutable      = errors.New("owner role can only change via ownership transfer")
	ErrMemberInactive      = errors.New("member is already inactive")
	ErrMemberAlreadyActive = errors.New("member is already active")
)
