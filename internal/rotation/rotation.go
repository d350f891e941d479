// Package rotation assigns and maintains committee payout turns.
package rotation

import (
	"errors"
	"math/rand/v2"
	"sort"
	"time"

	"kameti/internal/core"
	"kameti/internal/period"
)

var (
	ErrTurnNotFound     = errors.New("payout turn not found")
	ErrTurnPaidOut      = errors.New("payout turn already paid out")
	ErrPeriodOutOfRange = errors.New("turn period out of range")
)

// InitializeTurns builds one turn per membership slot. Manual keeps the
// membership order; Random shuffles a copy with rng. A member holding
// several shares receives several turns. TurnPeriod wraps modulo duration
// when there are more shares than periods.
//
// A nil rng uses a time-seeded source. Callers that need reproducible
// assignments pass their own.
func InitializeTurns(memberIDs []string, method core.PayoutMethod, duration int, rng *rand.Rand) []core.CommitteeMemberTurn {
	order := append([]string(nil), memberIDs...)
	if method == core.PayoutRandom {
		if rng == nil {
			rng = NewRand(uint64(time.Now().UnixNano()))
		}
		for i := len(order) - 1; i > 0; i-- {
			j := rng.IntN(i + 1)
			order[i], order[j] = order[j], order[i]
		}
	}

	turns := make([]core.CommitteeMemberTurn, 0, len(order))
	for pos, id := range order {
		p := pos
		if duration > 0 {
			p = pos % duration
		}
		turns = append(turns, core.CommitteeMemberTurn{
			Slot:       pos,
			MemberID:   id,
			TurnPeriod: p,
		})
	}
	return turns
}

// NewRand returns a PCG-backed generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ToggleTurnPaid flips PaidOut. Marking a turn paid stamps today as the
// payout date; unmarking clears it.
func ToggleTurnPaid(turn core.CommitteeMemberTurn, today core.Date) core.CommitteeMemberTurn {
	turn.PaidOut = !turn.PaidOut
	if turn.PaidOut {
		turn.PayoutDate = today
	} else {
		turn.PayoutDate = core.Date{}
	}
	return turn
}

// SortTurns returns the turns ordered by TurnPeriod. Turns sharing a period
// keep their relative order.
func SortTurns(turns []core.CommitteeMemberTurn) []core.CommitteeMemberTurn {
	out := append([]core.CommitteeMemberTurn(nil), turns...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TurnPeriod < out[j].TurnPeriod
	})
	return out
}

// FindTurn returns the index of the turn with slot.
func FindTurn(turns []core.CommitteeMemberTurn, slot int) (int, bool) {
	for i, t := range turns {
		if t.Slot == slot {
			return i, true
		}
	}
	return -1, false
}

// MoveTurn is the explicit rotation edit: it reassigns the turn at slot to
// newPeriod and returns a new slice. Paid-out turns cannot move.
func MoveTurn(turns []core.CommitteeMemberTurn, slot, newPeriod, duration int) ([]core.CommitteeMemberTurn, error) {
	if newPeriod < 0 || (duration > 0 && newPeriod >= duration) {
		return nil, ErrPeriodOutOfRange
	}
	idx, ok := FindTurn(turns, slot)
	if !ok {
		return nil, ErrTurnNotFound
	}
	if turns[idx].PaidOut {
		return nil, ErrTurnPaidOut
	}
	out := append([]core.CommitteeMemberTurn(nil), turns...)
	out[idx].TurnPeriod = newPeriod
	return out, nil
}

// TurnDate is the start of the period in which turn pays out.
func TurnDate(c core.Committee, turn core.CommitteeMemberTurn) core.Date {
	return period.Start(c, turn.TurnPeriod)
}
