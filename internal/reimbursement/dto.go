package reimbursement

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CreateRefundDTO records a payout. MemberID is optional and defaults to
// whoever is recording, so a member can claim their own refund.
type CreateRefundDTO struct {
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
	Note     *string         `json:"note,omitempty"`
	PaidAt   time.Time       `json:"paid_at"`
}

func (dto *CreateRefundDTO) Validate() error {
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	if dto.PaidAt.IsZero() {
		dto.PaidAt = time.Now()
	}
	if dto.Note != nil {
		trimmed := strings.TrimSpace(*dto.Note)
		if trimmed == "" {
			dto.Note = nil
		} else {
			dto.Note = &trimmed
		}
	}
	return nil
}
