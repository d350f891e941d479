package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly CommitteeType = "Monthly"
	Weekly  CommitteeType = "Weekly"
	Daily   CommitteeType = "Daily"
)

const (
	PayoutManual PayoutMethod = "Manual"
	PayoutRandom PayoutMethod = "Random"
)

const (
	PaymentCleared PaymentStatus = "Cleared"
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

const (
	InstallmentOpen   InstallmentStatus = "Open"
	InstallmentClosed InstallmentStatus = "Closed"
)

type (
	CommitteeType     string
	PayoutMethod      string
	PaymentStatus     string
	InstallmentStatus string

	Member struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		NationalID string `json:"nationalId"`
		Address    string `json:"address"`
		JoinDate   Date   `json:"joinDate"`
	}

	Committee struct {
		ID              string                `json:"id"`
		Title           string                `json:"title"`
		Type            CommitteeType         `json:"type"`
		StartDate       Date                  `json:"startDate"`
		Duration        int                   `json:"duration"`
		AmountPerMember Money                 `json:"amountPerMember"`
		MemberIDs       []string              `json:"memberIds"` // a repeated id is an extra share
		Payments        []CommitteePayment    `json:"payments"`
		PayoutTurns     []CommitteeMemberTurn `json:"payoutTurns"`
		PayoutMethod    PayoutMethod          `json:"payoutMethod"`
		Version         int64                 `json:"version"`
	}

	CommitteePayment struct {
		ID          string        `json:"id"`
		MemberID    string        `json:"memberId"`
		Period      int           `json:"periodIndex"`
		AmountPaid  Money         `json:"amountPaid"`
		PaymentDate Date          `json:"paymentDate"`
		Status      PaymentStatus `json:"status"`
	}

	// CommitteeMemberTurn is one payout slot. Slot is the position in the
	// rotation order, so a member holding two shares owns two slots.
	CommitteeMemberTurn struct {
		Slot       int    `json:"slot"`
		MemberID   string `json:"memberId"`
		TurnPeriod int    `json:"turnPeriodIndex"`
		PaidOut    bool   `json:"paidOut"`
		PayoutDate Date   `json:"payoutDate,omitempty"`
	}

	Installment struct {
		ID                 string               `json:"id"`
		BuyerName          string               `json:"buyerName"`
		BuyerPhone         string               `json:"buyerPhone"`
		BuyerNationalID    string               `json:"buyerNationalId"`
		BuyerAddress       string               `json:"buyerAddress"`
		ProductName        string               `json:"productName"`
		TotalPayment       Money                `json:"totalPayment"`
		AdvancePayment     Money                `json:"advancePayment"`
		MonthlyInstallment Money                `json:"monthlyInstallment"`
		StartDate          Date                 `json:"startDate"`
		Duration           int                  `json:"duration"`
		Payments           []InstallmentPayment `json:"payments"`
		Status             InstallmentStatus    `json:"status"`
		Version            int64                `json:"version"`
	}

	InstallmentPayment struct {
		ID            string        `json:"id"`
		InstallmentID string        `json:"installmentId"`
		AmountPaid    Money         `json:"amountPaid"`
		PaymentDate   Date          `json:"paymentDate"`
		Status        PaymentStatus `json:"status"`
	}
)

var (
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyTitle         = errors.New("empty title")
	ErrEmptyProduct       = errors.New("empty product name")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidNationalID  = errors.New("invalid national id")
	ErrInvalidDuration    = errors.New("duration must be at least 1 period")
	ErrInvalidType        = errors.New("invalid committee type")
	ErrInvalidMethod      = errors.New("invalid payout method")
	ErrInvalidStatus      = errors.New("invalid payment status")
	ErrNoMembers          = errors.New("committee has no members")
	ErrAdvanceExceedTotal = errors.New("advance payment exceeds total payment")
	ErrEmptyMemberID      = errors.New("empty member id")
)

func (t CommitteeType) IsValid() bool {
	switch t {
	case Monthly, Weekly, Daily:
		return true
	}
	return false
}

func (m PayoutMethod) IsValid() bool {
	return m == PayoutManual || m == PayoutRandom
}

// Counted reports whether a payment with this status contributes to paid
// totals. Pending payments never do.
func (s PaymentStatus) Counted() bool {
	return s == PaymentCleared || s == PaymentPaid
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if !IsValidPhone(m.Phone) {
		return ErrInvalidPhone
	}
	// National id is optional for members, but must be well formed when present.
	if m.NationalID != "" && !IsValidNationalID(m.NationalID) {
		return ErrInvalidNationalID
	}
	return nil
}

func (c Committee) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if !c.Type.IsValid() {
		return ErrInvalidType
	}
	if err := c.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if c.Duration < 1 {
		return ErrInvalidDuration
	}
	if err := c.AmountPerMember.Validate(); err != nil {
		return err
	}
	if len(c.MemberIDs) == 0 {
		return ErrNoMembers
	}
	for _, id := range c.MemberIDs {
		if strings.TrimSpace(id) == "" {
			return ErrEmptyMemberID
		}
	}
	if !c.PayoutMethod.IsValid() {
		return ErrInvalidMethod
	}
	return nil
}

func (p CommitteePayment) Validate() error {
	if strings.TrimSpace(p.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if err := p.AmountPaid.Validate(); err != nil {
		return err
	}
	if err := p.PaymentDate.Validate(); err != nil {
		return fmt.Errorf("invalid payment date: %w", err)
	}
	if p.Status != PaymentCleared && p.Status != PaymentPending {
		return ErrInvalidStatus
	}
	return nil
}

func (i Installment) Validate() error {
	if strings.TrimSpace(i.BuyerName) == "" {
		return ErrEmptyName
	}
	if !IsValidPhone(i.BuyerPhone) {
		return ErrInvalidPhone
	}
	if i.BuyerNationalID != "" && !IsValidNationalID(i.BuyerNationalID) {
		return ErrInvalidNationalID
	}
	if strings.TrimSpace(i.ProductName) == "" {
		return ErrEmptyProduct
	}
	if err := i.TotalPayment.Validate(); err != nil {
		return err
	}
	if i.AdvancePayment.Cents < 0 {
		return ErrInvalidAmount
	}
	if i.AdvancePayment.Cents > i.TotalPayment.Cents {
		return ErrAdvanceExceedTotal
	}
	if err := i.MonthlyInstallment.Validate(); err != nil {
		return err
	}
	if err := i.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if i.Duration < 1 {
		return ErrInvalidDuration
	}
	return nil
}

func (p InstallmentPayment) Validate() error {
	if err := p.AmountPaid.Validate(); err != nil {
		return err
	}
	if err := p.PaymentDate.Validate(); err != nil {
		return fmt.Errorf("invalid payment date: %w", err)
	}
	return nil
}

// Shares returns how many membership slots memberID holds.
func (c Committee) Shares(memberID string) int {
	n := 0
	for _, id := range c.MemberIDs {
		if id == memberID {
			n++
		}
	}
	return n
}

// DistinctMembers returns member ids in membership order without repeats.
func (c Committee) DistinctMembers() []string {
	seen := make(map[string]struct{}, len(c.MemberIDs))
	out := make([]string, 0, len(c.MemberIDs))
	for _, id := range c.MemberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Clone returns a copy whose slices can be modified without touching c.
func (c Committee) Clone() Committee {
	out := c
	out.MemberIDs = append([]string(nil), c.MemberIDs...)
	out.Payments = append([]CommitteePayment(nil), c.Payments...)
	out.PayoutTurns = append([]CommitteeMemberTurn(nil), c.PayoutTurns...)
	return out
}

func (i Installment) Clone() Installment {
	out := i
	out.Payments = append([]InstallmentPayment(nil), i.Payments...)
	return out
}

// Clock supplies the current civil date.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in Location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() Date {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Now().In(loc))
}

// FixedClock always returns the same date.
type FixedClock struct {
	Date Date
}

func (c FixedClock) Today() Date {
	return c.Date
}
