package invite

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
)

// codeAlphabet drops the characters that read ambiguously in print: no I, O,
// 0 or 1.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 12
)

var (
	ErrInviteNotFound  = errors.New("invite code not found")
	ErrInviteRevoked   = errors.New("invite code has been revoked")
	ErrInviteExhausted = errors.New("invite code has no uses left")
	ErrInviteExpired   = errors.New("invite code has expired")
	ErrAlreadyMember   = errors.New("already an active member of this organization")
)

// InviteCode lets a user join an organization as a member. A nil MaxUses
// means unlimited uses.
type InviteCode struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	OrganizationID string     `json:"organization_id" gorm:"index"`
	Code           string     `json:"code" gorm:"uniqueIndex"`
	MaxUses        *int       `json:"max_uses,omitempty"`
	CurrentUses    int        `json:"current_uses"`
	IsRevoked      bool       `json:"is_revoked"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (InviteCode) TableName() string {
	return "invite_codes"
}

// DisplayCode formats the stored code as XXXX-XXXX-XXXX for humans.
func (c *InviteCode) DisplayCode() string {
	if len(c.Code) != codeLength {
		return c.Code
	}
	return fmt.Sprintf("%s-%s-%s", c.Code[0:4], c.Code[4:8], c.Code[8:12])
}

// Usable reports whether the code can still admit someone.
func (c *InviteCode) Usable(now time.Time) error {
	if c.IsRevoked {
		return ErrInviteRevoked
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrInviteExpired
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return ErrInviteExhausted
	}
	return nil
}

// GenerateCode produces a random invite code from the unambiguous alphabet.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode strips dashes and whitespace and uppercases user input so
// "abcd-efgh-jklm" matches its stored form.
func NormalizeCode(raw string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	return cleaned
}
