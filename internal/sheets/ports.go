package sheets

import (
	"context"
	"errors"
	"strings"

	"kameti/internal/core"
)

// Row is one line of the payments mirror sheet.
type Row struct {
	EventID     string
	Event       string // ledger event type, e.g. committee.payment.recorded
	EntityID    string
	EntityTitle string
	PaymentID   string
	Payer       string
	Period      int
	Amount      core.Money
	PaymentDate core.Date
	Status      string
}

var ErrInvalidRow = errors.New("invalid mirror row")

func (r Row) Validate() error {
	if strings.TrimSpace(r.EntityID) == "" || strings.TrimSpace(r.Event) == "" {
		return ErrInvalidRow
	}
	if r.Amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	return nil
}

// Ports for outbound adapters.
type (
	// PaymentMirror appends ledger rows to an external spreadsheet.
	PaymentMirror interface {
		AppendRow(ctx context.Context, r Row) (rowRef string, err error)
	}

	// RowLister returns mirrored rows in append order.
	RowLister interface {
		ListRows(ctx context.Context) ([]Row, error)
	}
)
