package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"kameti/internal/core"
	applog "kameti/internal/log"
	"kameti/internal/store"
)

const committeeColumns = `id, title, type, start_date, duration, amount_per_member_cents, payout_method, version`

func (r *SQLiteRepository) CreateCommittee(ctx context.Context, c core.Committee) (core.Committee, error) {
	if err := c.Validate(); err != nil {
		return core.Committee{}, err
	}
	c = c.Clone()
	c.Version = 1

	err := r.inTx(ctx, func(q DBTX) error {
		res, err := q.ExecContext(ctx, `
			INSERT INTO committees (`+committeeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Title, string(c.Type), c.StartDate.String(), c.Duration,
			c.AmountPerMember.Cents, string(c.PayoutMethod), c.Version)
		if err != nil {
			return fmt.Errorf("insert committee: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("committee %s: %w", c.ID, store.ErrExists)
		}
		return writeCommitteeChildren(ctx, q, c)
	})
	if err != nil {
		return core.Committee{}, err
	}

	slog.InfoContext(ctx, "Committee saved to SQLite",
		applog.FieldCommitteeID, c.ID,
		"shares", len(c.MemberIDs),
		"turns", len(c.PayoutTurns))
	return c, nil
}

// SaveCommittee rewrites the committee and its child rows in one
// transaction. The UPDATE is guarded by the caller's version.
func (r *SQLiteRepository) SaveCommittee(ctx context.Context, c core.Committee) (core.Committee, error) {
	if err := c.Validate(); err != nil {
		return core.Committee{}, err
	}
	c = c.Clone()

	err := r.inTx(ctx, func(q DBTX) error {
		res, err := q.ExecContext(ctx, `
			UPDATE committees
			SET title = ?, type = ?, start_date = ?, duration = ?, amount_per_member_cents = ?,
			    payout_method = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND version = ?`,
			c.Title, string(c.Type), c.StartDate.String(), c.Duration, c.AmountPerMember.Cents,
			string(c.PayoutMethod), c.ID, c.Version)
		if err != nil {
			return fmt.Errorf("update committee: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return missingOrStale(ctx, q, "committees", c.ID, c.Version)
		}
		for _, table := range []string{"committee_members", "committee_payments", "committee_turns"} {
			if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE committee_id = ?`, c.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return writeCommitteeChildren(ctx, q, c)
	})
	if err != nil {
		return core.Committee{}, err
	}

	c.Version++
	return c, nil
}

func writeCommitteeChildren(ctx context.Context, q DBTX, c core.Committee) error {
	for pos, id := range c.MemberIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO committee_members (committee_id, position, member_id) VALUES (?, ?, ?)`,
			c.ID, pos, id); err != nil {
			return fmt.Errorf("insert committee member: %w", err)
		}
	}
	for pos, p := range c.Payments {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO committee_payments
			    (id, committee_id, position, member_id, period_index, amount_cents, payment_date, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, c.ID, pos, p.MemberID, p.Period, p.AmountPaid.Cents, p.PaymentDate.String(), string(p.Status)); err != nil {
			return fmt.Errorf("insert committee payment %s: %w", p.ID, err)
		}
	}
	for _, t := range c.PayoutTurns {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO committee_turns (committee_id, slot, member_id, turn_period_index, paid_out, payout_date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, t.Slot, t.MemberID, t.TurnPeriod, t.PaidOut, t.PayoutDate.String()); err != nil {
			return fmt.Errorf("insert payout turn %d: %w", t.Slot, err)
		}
	}
	return nil
}

// missingOrStale explains why a guarded UPDATE touched no row.
func missingOrStale(ctx context.Context, q DBTX, table, id string, version int64) error {
	var current int64
	err := q.QueryRowContext(ctx, `SELECT version FROM `+table+` WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read %s version: %w", table, err)
	}
	return fmt.Errorf("%s %s at version %d, stored %d: %w", table, id, version, current, store.ErrConflict)
}

func (r *SQLiteRepository) GetCommittee(ctx context.Context, id string) (core.Committee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+committeeColumns+` FROM committees WHERE id = ?`, id)
	c, err := scanCommittee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Committee{}, fmt.Errorf("committee %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Committee{}, fmt.Errorf("get committee: %w", err)
	}
	if err := r.loadCommitteeChildren(ctx, &c); err != nil {
		return core.Committee{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) ListCommittees(ctx context.Context) ([]core.Committee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+committeeColumns+` FROM committees ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list committees: %w", err)
	}
	var out []core.Committee
	for rows.Next() {
		c, err := scanCommittee(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan committee: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Children are loaded after the cursor is closed; the pool holds one connection.
	for i := range out {
		if err := r.loadCommitteeChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteCommittee(ctx context.Context, id string) error {
	err := r.inTx(ctx, func(q DBTX) error {
		for _, table := range []string{"committee_members", "committee_payments", "committee_turns"} {
			if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE committee_id = ?`, id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		res, err := q.ExecContext(ctx, `DELETE FROM committees WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete committee: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("committee %s: %w", id, store.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Committee deleted from SQLite", applog.FieldCommitteeID, id)
	return nil
}

func scanCommittee(s scanner) (core.Committee, error) {
	var (
		c           core.Committee
		typ, method string
		start       string
	)
	if err := s.Scan(&c.ID, &c.Title, &typ, &start, &c.Duration, &c.AmountPerMember.Cents, &method, &c.Version); err != nil {
		return core.Committee{}, err
	}
	c.Type = core.CommitteeType(typ)
	c.PayoutMethod = core.PayoutMethod(method)
	c.StartDate = parseStoredDate(start)
	return c, nil
}

func (r *SQLiteRepository) loadCommitteeChildren(ctx context.Context, c *core.Committee) error {
	members, err := r.db.QueryContext(ctx,
		`SELECT member_id FROM committee_members WHERE committee_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("load committee members: %w", err)
	}
	c.MemberIDs = nil
	for members.Next() {
		var id string
		if err := members.Scan(&id); err != nil {
			members.Close()
			return fmt.Errorf("scan committee member: %w", err)
		}
		c.MemberIDs = append(c.MemberIDs, id)
	}
	if err := members.Err(); err != nil {
		members.Close()
		return fmt.Errorf("load committee members: %w", err)
	}
	members.Close()

	payments, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, period_index, amount_cents, payment_date, status
		FROM committee_payments WHERE committee_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("load committee payments: %w", err)
	}
	c.Payments = nil
	for payments.Next() {
		var (
			p            core.CommitteePayment
			date, status string
		)
		if err := payments.Scan(&p.ID, &p.MemberID, &p.Period, &p.AmountPaid.Cents, &date, &status); err != nil {
			payments.Close()
			return fmt.Errorf("scan committee payment: %w", err)
		}
		p.PaymentDate = parseStoredDate(date)
		p.Status = core.PaymentStatus(status)
		c.Payments = append(c.Payments, p)
	}
	if err := payments.Err(); err != nil {
		payments.Close()
		return fmt.Errorf("load committee payments: %w", err)
	}
	payments.Close()

	turns, err := r.db.QueryContext(ctx, `
		SELECT slot, member_id, turn_period_index, paid_out, payout_date
		FROM committee_turns WHERE committee_id = ? ORDER BY slot`, c.ID)
	if err != nil {
		return fmt.Errorf("load payout turns: %w", err)
	}
	defer turns.Close()
	c.PayoutTurns = nil
	for turns.Next() {
		var (
			t    core.CommitteeMemberTurn
			date string
		)
		if err := turns.Scan(&t.Slot, &t.MemberID, &t.TurnPeriod, &t.PaidOut, &date); err != nil {
			return fmt.Errorf("scan payout turn: %w", err)
		}
		t.PayoutDate = parseStoredDate(date)
		c.PayoutTurns = append(c.PayoutTurns, t)
	}
	return turns.Err()
}
