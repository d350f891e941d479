package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a ledger change that downstream consumers react to.
type EventType string

const (
	CommitteeCreated            EventType = "committee.created"
	CommitteePaymentRecorded    EventType = "committee.payment.recorded"
	CommitteePaymentCleared     EventType = "committee.payment.cleared"
	PayoutTurnToggled           EventType = "committee.turn.toggled"
	PayoutTurnMoved             EventType = "committee.turn.moved"
	InstallmentCreated          EventType = "installment.created"
	InstallmentPaymentRecorded  EventType = "installment.payment.recorded"
	InstallmentPaymentCorrected EventType = "installment.payment.corrected"
	InstallmentPaymentRemoved   EventType = "installment.payment.removed"
)

// IsPayment reports whether the event carries a payment row.
func (t EventType) IsPayment() bool {
	switch t {
	case CommitteePaymentRecorded, CommitteePaymentCleared,
		InstallmentPaymentRecorded, InstallmentPaymentCorrected, InstallmentPaymentRemoved:
		return true
	}
	return false
}

// LedgerEvent is published after a successful write. It carries enough of
// the changed row for consumers that cannot read the store.
type LedgerEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	EntityID    string    `json:"entityId"`    // committee or installment id
	EntityTitle string    `json:"entityTitle"` // committee title or product name
	Version     int64     `json:"version"`

	PaymentID   string `json:"paymentId,omitempty"`
	Payer       string `json:"payer,omitempty"` // member id or buyer name
	Period      int    `json:"periodIndex"`
	AmountCents int64  `json:"amountCents"`
	PaymentDate string `json:"paymentDate,omitempty"`
	Status      string `json:"status,omitempty"`

	Slot      int       `json:"slot,omitempty"`
	PaidOut   bool      `json:"paidOut,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a fresh event id and the current time.
func NewLedgerEvent(t EventType, entityID string, version int64) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      t,
		EntityID:  entityID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
