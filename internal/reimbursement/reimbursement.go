package reimbursement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const StatusPaid = "paid"

var (
	ErrReimbursementNotFound    = errors.New("reimbursement not found")
	ErrRefundExceedsOutstanding = errors.New("refund exceeds the member's outstanding reimbursable amount")
)

// ReimbursementRequest records money paid back to a member for expenses they
// covered out of pocket. Refunds are recorded after the fact, so every row
// is created already paid.
type ReimbursementRequest struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	OrganizationID string          `json:"organization_id" gorm:"index"`
	MemberID       string          `json:"member_id" gorm:"index"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(18,2)"`
	Note           *string         `json:"note,omitempty"`
	Status         string          `json:"status" gorm:"type:varchar(16)"`
	PaidAt         time.Time       `json:"paid_at"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (ReimbursementRequest) TableName() string {
	return "reimbursement_requests"
}
