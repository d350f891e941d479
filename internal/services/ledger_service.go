package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"kameti/internal/amqp"
	"kameti/internal/cache"
	"kameti/internal/core"
	"kameti/internal/dashboard"
	"kameti/internal/ledger"
	applog "kameti/internal/log"
	"kameti/internal/notify"
	"kameti/internal/rotation"
	"kameti/internal/store"
)

var (
	// ErrInvalidInput wraps every validation failure returned by the service.
	ErrInvalidInput     = errors.New("invalid input")
	ErrOverpayment      = errors.New("payment exceeds amount due")
	ErrNotMember        = errors.New("member does not belong to committee")
	ErrUnknownMember    = errors.New("unknown member")
	ErrPeriodOutOfRange = errors.New("period out of range")
	ErrAlreadyCleared   = errors.New("payment already cleared")
)

// EventPublisher delivers ledger events to downstream consumers.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Options configures a LedgerService. Zero values pick defaults.
type Options struct {
	Clock     core.Clock
	Rand      *rand.Rand // Random payout order; nil seeds from the clock
	Locale    string
	Dashboard dashboard.Options
	Notify    notify.Options
	Cache     cache.Cache[core.Date, dashboard.Summary]
}

// LedgerService validates and applies ledger changes, persists them and
// publishes an event per successful write.
type LedgerService struct {
	store  store.Repository
	events EventPublisher
	clock  core.Clock

	rngMu sync.Mutex
	rng   *rand.Rand

	locale     string
	dashOpts   dashboard.Options
	notifyOpts notify.Options

	// cacheMu orders Set against Purge; generation counts writes so a
	// summary computed before a write is never cached after it.
	cacheMu    sync.Mutex
	generation atomic.Uint64
	summaries  cache.Cache[core.Date, dashboard.Summary]
}

// NewLedgerService wires the service. events may be nil, in which case no
// events are published.
func NewLedgerService(repo store.Repository, events EventPublisher, opts Options) *LedgerService {
	clock := opts.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}
	locale := opts.Locale
	if locale == "" {
		locale = "en"
	}
	return &LedgerService{
		store:      repo,
		events:     events,
		clock:      clock,
		rng:        opts.Rand,
		locale:     locale,
		dashOpts:   opts.Dashboard,
		notifyOpts: opts.Notify,
		summaries:  opts.Cache,
	}
}

// Today is the service clock's current date.
func (s *LedgerService) Today() core.Date {
	return s.clock.Today()
}

// Locale is the locale used for period labels.
func (s *LedgerService) Locale() string {
	return s.locale
}

// Store exposes the underlying repository for read-only tooling.
func (s *LedgerService) Store() store.Repository {
	return s.store
}

// Members

func (s *LedgerService) CreateMember(ctx context.Context, m core.Member) (core.Member, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinDate.IsZero() {
		m.JoinDate = s.clock.Today()
	}
	if err := m.Validate(); err != nil {
		return core.Member{}, invalid(err)
	}
	if err := s.store.CreateMember(ctx, m); err != nil {
		return core.Member{}, fmt.Errorf("save member: %w", err)
	}
	slog.InfoContext(ctx, "Member created", applog.FieldMemberID, m.ID)
	return m, nil
}

func (s *LedgerService) UpdateMember(ctx context.Context, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, invalid(err)
	}
	if err := s.store.UpdateMember(ctx, m); err != nil {
		return core.Member{}, fmt.Errorf("update member: %w", err)
	}
	s.invalidate()
	slog.InfoContext(ctx, "Member updated", applog.FieldMemberID, m.ID)
	return m, nil
}

func (s *LedgerService) GetMember(ctx context.Context, id string) (core.Member, error) {
	return s.store.GetMember(ctx, id)
}

func (s *LedgerService) ListMembers(ctx context.Context) ([]core.Member, error) {
	return s.store.ListMembers(ctx)
}

// Committees

// CreateCommittee stores a new committee and assigns its payout turns once.
// Every member id must refer to a stored member.
func (s *LedgerService) CreateCommittee(ctx context.Context, c core.Committee) (core.Committee, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Payments = nil
	if err := c.Validate(); err != nil {
		return core.Committee{}, invalid(err)
	}
	for _, id := range c.DistinctMembers() {
		if _, err := s.store.GetMember(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return core.Committee{}, invalid(fmt.Errorf("%w: %s", ErrUnknownMember, id))
			}
			return core.Committee{}, fmt.Errorf("load member %s: %w", id, err)
		}
	}
	c.PayoutTurns = rotation.InitializeTurns(c.MemberIDs, c.PayoutMethod, c.Duration, s.shuffleSource())

	created, err := s.store.CreateCommittee(ctx, c)
	if err != nil {
		return core.Committee{}, fmt.Errorf("save committee: %w", err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Committee created",
		applog.FieldCommitteeID, created.ID,
		"members", len(created.MemberIDs),
		"duration", created.Duration,
		applog.FieldAmountCents, created.AmountPerMember.Cents)

	ev := amqp.NewLedgerEvent(amqp.CommitteeCreated, created.ID, created.Version)
	ev.EntityTitle = created.Title
	s.publish(ctx, ev)
	return created, nil
}

func (s *LedgerService) GetCommittee(ctx context.Context, id string) (core.Committee, error) {
	return s.store.GetCommittee(ctx, id)
}

func (s *LedgerService) ListCommittees(ctx context.Context) ([]core.Committee, error) {
	return s.store.ListCommittees(ctx)
}

// CommitteePaymentInput is a contribution to record. Status defaults to
// Pending and PaymentDate to today.
type CommitteePaymentInput struct {
	MemberID    string             `json:"memberId"`
	Period      int                `json:"periodIndex"`
	Amount      core.Money         `json:"amountPaid"`
	PaymentDate core.Date          `json:"paymentDate"`
	Status      core.PaymentStatus `json:"status"`
}

// RecordCommitteePayment appends a contribution. The member must belong to
// the committee, the period must lie within its duration, and cleared plus
// pending contributions for that member and period may not exceed what the
// member owes.
func (s *LedgerService) RecordCommitteePayment(ctx context.Context, committeeID string, in CommitteePaymentInput) (core.Committee, core.CommitteePayment, error) {
	c, err := s.store.GetCommittee(ctx, committeeID)
	if err != nil {
		return core.Committee{}, core.CommitteePayment{}, err
	}

	p := core.CommitteePayment{
		ID:          uuid.NewString(),
		MemberID:    in.MemberID,
		Period:      in.Period,
		AmountPaid:  in.Amount,
		PaymentDate: in.PaymentDate,
		Status:      in.Status,
	}
	if p.Status == "" {
		p.Status = core.PaymentPending
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = s.clock.Today()
	}
	if err := checkCommitteePayment(c, p); err != nil {
		return core.Committee{}, core.CommitteePayment{}, err
	}

	c.Payments = append(c.Payments, p)
	saved, err := s.store.SaveCommittee(ctx, c)
	if err != nil {
		return core.Committee{}, core.CommitteePayment{}, fmt.Errorf("save committee: %w", err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Committee payment recorded",
		applog.FieldCommitteeID, saved.ID,
		applog.FieldPaymentID, p.ID,
		applog.FieldMemberID, p.MemberID,
		applog.FieldPeriod, p.Period,
		applog.FieldAmountCents, p.AmountPaid.Cents,
		applog.FieldStatus, p.Status)

	s.publish(ctx, committeePaymentEvent(amqp.CommitteePaymentRecorded, saved, p))
	return saved, p, nil
}

// ClearCommitteePayment moves a Pending contribution to Cleared.
func (s *LedgerService) ClearCommitteePayment(ctx context.Context, committeeID, paymentID string) (core.Committee, error) {
	c, err := s.store.GetCommittee(ctx, committeeID)
	if err != nil {
		return core.Committee{}, err
	}
	idx := -1
	for k, p := range c.Payments {
		if p.ID == paymentID {
			idx = k
			break
		}
	}
	if idx < 0 {
		return core.Committee{}, fmt.Errorf("payment %s: %w", paymentID, store.ErrNotFound)
	}
	if c.Payments[idx].Status == core.PaymentCleared {
		return core.Committee{}, invalid(ErrAlreadyCleared)
	}
	c.Payments[idx].Status = core.PaymentCleared

	saved, err := s.store.SaveCommittee(ctx, c)
	if err != nil {
		return core.Committee{}, fmt.Errorf("save committee: %w", err)
	}
	s.invalidate()

	p := c.Payments[idx]
	slog.InfoContext(ctx, "Committee payment cleared",
		applog.FieldCommitteeID, saved.ID,
		applog.FieldPaymentID, p.ID,
		applog.FieldMemberID, p.MemberID,
		applog.FieldAmountCents, p.AmountPaid.Cents)

	s.publish(ctx, committeePaymentEvent(amqp.CommitteePaymentCleared, saved, p))
	return saved, nil
}

// ToggleTurn flips the paid-out flag of the turn at slot, stamping today as
// the payout date when it becomes paid.
func (s *LedgerService) ToggleTurn(ctx context.Context, committeeID string, slot int) (core.Committee, error) {
	c, err := s.store.GetCommittee(ctx, committeeID)
	if err != nil {
		return core.Committee{}, err
	}
	idx, ok := rotation.FindTurn(c.PayoutTurns, slot)
	if !ok {
		return core.Committee{}, fmt.Errorf("slot %d: %w", slot, store.ErrNotFound)
	}
	c.PayoutTurns[idx] = rotation.ToggleTurnPaid(c.PayoutTurns[idx], s.clock.Today())

	saved, err := s.store.SaveCommittee(ctx, c)
	if err != nil {
		return core.Committee{}, fmt.Errorf("save committee: %w", err)
	}
	s.invalidate()

	turn := saved.PayoutTurns[idx]
	slog.InfoContext(ctx, "Payout turn toggled",
		applog.FieldCommitteeID, saved.ID,
		applog.FieldSlot, turn.Slot,
		applog.FieldMemberID, turn.MemberID,
		"paid_out", turn.PaidOut)

	s.publish(ctx, turnEvent(amqp.PayoutTurnToggled, saved, turn))
	return saved, nil
}

// MoveTurn reassigns the turn at slot to another period.
func (s *LedgerService) MoveTurn(ctx context.Context, committeeID string, slot, newPeriod int) (core.Committee, error) {
	c, err := s.store.GetCommittee(ctx, committeeID)
	if err != nil {
		return core.Committee{}, err
	}
	turns, err := rotation.MoveTurn(c.PayoutTurns, slot, newPeriod, c.Duration)
	switch {
	case errors.Is(err, rotation.ErrTurnNotFound):
		return core.Committee{}, fmt.Errorf("slot %d: %w", slot, store.ErrNotFound)
	case err != nil:
		return core.Committee{}, invalid(err)
	}
	c.PayoutTurns = turns

	saved, err := s.store.SaveCommittee(ctx, c)
	if err != nil {
		return core.Committee{}, fmt.Errorf("save committee: %w", err)
	}
	s.invalidate()

	idx, _ := rotation.FindTurn(saved.PayoutTurns, slot)
	turn := saved.PayoutTurns[idx]
	slog.InfoContext(ctx, "Payout turn moved",
		applog.FieldCommitteeID, saved.ID,
		applog.FieldSlot, slot,
		applog.FieldPeriod, newPeriod)

	s.publish(ctx, turnEvent(amqp.PayoutTurnMoved, saved, turn))
	return saved, nil
}

func checkCommitteePayment(c core.Committee, p core.CommitteePayment) error {
	if err := p.Validate(); err != nil {
		return invalid(err)
	}
	if c.Shares(p.MemberID) == 0 {
		return invalid(fmt.Errorf("%w: %s", ErrNotMember, p.MemberID))
	}
	if p.Period < 0 || p.Period >= c.Duration {
		return invalid(fmt.Errorf("%w: %d not in [0, %d)", ErrPeriodOutOfRange, p.Period, c.Duration))
	}

	committed := ledger.MemberPeriodPaid(c, p.MemberID, p.Period).
		Add(ledger.MemberPeriodPending(c, p.MemberID, p.Period))
	due := ledger.MemberDue(c, p.MemberID)
	if committed.Add(p.AmountPaid).Cents > due.Cents {
		return invalid(fmt.Errorf("%w: %s already committed of %s", ErrOverpayment, committed, due))
	}
	return nil
}

// shuffleSource returns a generator for one rotation draw. The shared
// generator is not safe for concurrent use, so draws are serialized and a
// derived generator is handed out.
func (s *LedgerService) shuffleSource() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	if s.rng == nil {
		return nil
	}
	return rotation.NewRand(s.rng.Uint64())
}

func (s *LedgerService) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation.Add(1)
	if s.summaries != nil {
		s.summaries.Purge()
	}
}

// cacheSummary stores sum unless a write happened since generation gen.
func (s *LedgerService) cacheSummary(gen uint64, today core.Date, sum dashboard.Summary) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation.Load() == gen {
		s.summaries.Set(today, sum)
	}
}

// publish sends ev when a publisher is configured. Failures are logged and
// dropped: the local write has already succeeded.
func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.events == nil {
		slog.DebugContext(ctx, "No event publisher, skipping ledger event", applog.FieldEventType, ev.Type)
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldEventType, ev.Type,
			applog.FieldEntityID, ev.EntityID,
			applog.FieldError, err)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if closer, ok := s.events.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}

func committeePaymentEvent(t amqp.EventType, c core.Committee, p core.CommitteePayment) *amqp.LedgerEvent {
	ev := amqp.NewLedgerEvent(t, c.ID, c.Version)
	ev.EntityTitle = c.Title
	ev.PaymentID = p.ID
	ev.Payer = p.MemberID
	ev.Period = p.Period
	ev.AmountCents = p.AmountPaid.Cents
	ev.PaymentDate = p.PaymentDate.String()
	ev.Status = string(p.Status)
	return ev
}

func turnEvent(t amqp.EventType, c core.Committee, turn core.CommitteeMemberTurn) *amqp.LedgerEvent {
	ev := amqp.NewLedgerEvent(t, c.ID, c.Version)
	ev.EntityTitle = c.Title
	ev.Payer = turn.MemberID
	ev.Period = turn.TurnPeriod
	ev.Slot = turn.Slot
	ev.PaidOut = turn.PaidOut
	ev.PaymentDate = turn.PayoutDate.String()
	if turn.PaidOut {
		ev.Status = "PaidOut"
		ev.AmountCents = c.AmountPerMember.Mul(len(c.MemberIDs)).Cents
	} else {
		ev.Status = "Unpaid"
	}
	return ev
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
