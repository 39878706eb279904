package finance

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SetBaselineDTO sets a member's holdings baseline to an absolute target.
type SetBaselineDTO struct {
	TargetUserID   string          `json:"target_user_id"`
	TargetBaseline decimal.Decimal `json:"target_baseline"`
}

func (dto SetBaselineDTO) Validate() error {
	if dto.TargetUserID == "" {
		return errors.New("target_user_id is required")
	}
	if dto.TargetBaseline.IsNegative() {
		return errors.New("target_baseline cannot be negative")
	}
	return nil
}
