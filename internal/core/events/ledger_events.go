package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLedgerChanged     = "ledger.changed"
	EventTypeMembershipChanged = "membership.changed"
	EventTypeBaselineChanged   = "baseline.changed"
)

// LedgerChangedEvent signals that an organization's transaction ledger was
// mutated. Subscribers use it to invalidate cached stats views, the stand-in
// for the original page re-render on write.
type LedgerChangedEvent struct {
	BaseEvent
	OrganizationID  string `json:"organization_id"`
	TransactionID   string `json:"transaction_id"`
	TransactionType string `json:"transaction_type"`
	Action          string `json:"action"` // created, updated, deleted
}

func NewLedgerChangedEvent(organizationID, transactionID, transactionType, action string) *LedgerChangedEvent {
	return &LedgerChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLedgerChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"organization_id":  organizationID,
				"transaction_id":   transactionID,
				"transaction_type": transactionType,
				"action":           action,
			},
		},
		OrganizationID:  organizationID,
		TransactionID:   transactionID,
		TransactionType: transactionType,
		Action:          action,
	}
}

type MembershipChangedEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Change         string `json:"change"` // joined, role_updated, deactivated, reactivated, ownership_transferred
}

func NewMembershipChangedEvent(organizationID, userID, change string) *MembershipChangedEvent {
	return &MembershipChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeMembershipChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"organization_id": organizationID,
				"user_id":         userID,
				"change":          change,
			},
		},
		OrganizationID: organizationID,
		UserID:         userID,
		Change:         change,
	}
}

type BaselineChangedEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Baseline       string `json:"baseline"`
}

func NewBaselineChangedEvent(organizationID, userID, baseline string) *BaselineChangedEvent {
	return &BaselineChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBaselineChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"organization_id": organizationID,
				"user_id":         userID,
				"baseline":        baseline,
			},
		},
		OrganizationID: organizationID,
		UserID:         userID,
		Baseline:       baseline,
	}
}
