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

const installmentColumns = `id, buyer_name, buyer_phone, buyer_national_id, buyer_address, product_name,
	total_payment_cents, advance_payment_cents, monthly_cents, start_date, duration, status, version`

func (r *SQLiteRepository) CreateInstallment(ctx context.Context, i core.Installment) (core.Installment, error) {
	if err := i.Validate(); err != nil {
		return core.Installment{}, err
	}
	i = i.Clone()
	i.Version = 1

	err := r.inTx(ctx, func(q DBTX) error {
		res, err := q.ExecContext(ctx, `
			INSERT INTO installments (`+installmentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			i.ID, i.BuyerName, i.BuyerPhone, i.BuyerNationalID, i.BuyerAddress, i.ProductName,
			i.TotalPayment.Cents, i.AdvancePayment.Cents, i.MonthlyInstallment.Cents,
			i.StartDate.String(), i.Duration, string(i.Status), i.Version)
		if err != nil {
			return fmt.Errorf("insert installment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("installment %s: %w", i.ID, store.ErrExists)
		}
		return writeInstallmentPayments(ctx, q, i)
	})
	if err != nil {
		return core.Installment{}, err
	}

	slog.InfoContext(ctx, "Installment saved to SQLite",
		applog.FieldInstallmentID, i.ID,
		"total_cents", i.TotalPayment.Cents)
	return i, nil
}

func (r *SQLiteRepository) SaveInstallment(ctx context.Context, i core.Installment) (core.Installment, error) {
	if err := i.Validate(); err != nil {
		return core.Installment{}, err
	}
	i = i.Clone()

	err := r.inTx(ctx, func(q DBTX) error {
		res, err := q.ExecContext(ctx, `
			UPDATE installments
			SET buyer_name = ?, buyer_phone = ?, buyer_national_id = ?, buyer_address = ?, product_name = ?,
			    total_payment_cents = ?, advance_payment_cents = ?, monthly_cents = ?, start_date = ?,
			    duration = ?, status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND version = ?`,
			i.BuyerName, i.BuyerPhone, i.BuyerNationalID, i.BuyerAddress, i.ProductName,
			i.TotalPayment.Cents, i.AdvancePayment.Cents, i.MonthlyInstallment.Cents, i.StartDate.String(),
			i.Duration, string(i.Status), i.ID, i.Version)
		if err != nil {
			return fmt.Errorf("update installment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return missingOrStale(ctx, q, "installments", i.ID, i.Version)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM installment_payments WHERE installment_id = ?`, i.ID); err != nil {
			return fmt.Errorf("clear installment payments: %w", err)
		}
		return writeInstallmentPayments(ctx, q, i)
	})
	if err != nil {
		return core.Installment{}, err
	}

	i.Version++
	return i, nil
}

func writeInstallmentPayments(ctx context.Context, q DBTX, i core.Installment) error {
	for pos, p := range i.Payments {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO installment_payments (id, installment_id, position, amount_cents, payment_date, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, i.ID, pos, p.AmountPaid.Cents, p.PaymentDate.String(), string(p.Status)); err != nil {
			return fmt.Errorf("insert installment payment %s: %w", p.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetInstallment(ctx context.Context, id string) (core.Installment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+installmentColumns+` FROM installments WHERE id = ?`, id)
	i, err := scanInstallment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Installment{}, fmt.Errorf("installment %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Installment{}, fmt.Errorf("get installment: %w", err)
	}
	if err := r.loadInstallmentPayments(ctx, &i); err != nil {
		return core.Installment{}, err
	}
	return i, nil
}

func (r *SQLiteRepository) ListInstallments(ctx context.Context) ([]core.Installment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+installmentColumns+` FROM installments ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	var out []core.Installment
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for k := range out {
		if err := r.loadInstallmentPayments(ctx, &out[k]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteInstallment(ctx context.Context, id string) error {
	err := r.inTx(ctx, func(q DBTX) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM installment_payments WHERE installment_id = ?`, id); err != nil {
			return fmt.Errorf("delete installment payments: %w", err)
		}
		res, err := q.ExecContext(ctx, `DELETE FROM installments WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete installment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("installment %s: %w", id, store.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Installment deleted from SQLite", applog.FieldInstallmentID, id)
	return nil
}

func scanInstallment(s scanner) (core.Installment, error) {
	var (
		i             core.Installment
		start, status string
	)
	err := s.Scan(&i.ID, &i.BuyerName, &i.BuyerPhone, &i.BuyerNationalID, &i.BuyerAddress, &i.ProductName,
		&i.TotalPayment.Cents, &i.AdvancePayment.Cents, &i.MonthlyInstallment.Cents,
		&start, &i.Duration, &status, &i.Version)
	if err != nil {
		return core.Installment{}, err
	}
	i.StartDate = parseStoredDate(start)
	i.Status = core.InstallmentStatus(status)
	return i, nil
}

func (r *SQLiteRepository) loadInstallmentPayments(ctx context.Context, i *core.Installment) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, payment_date, status
		FROM installment_payments WHERE installment_id = ? ORDER BY position`, i.ID)
	if err != nil {
		return fmt.Errorf("load installment payments: %w", err)
	}
	defer rows.Close()

	i.Payments = nil
	for rows.Next() {
		var (
			p            core.InstallmentPayment
			date, status string
		)
		if err := rows.Scan(&p.ID, &p.AmountPaid.Cents, &date, &status); err != nil {
			return fmt.Errorf("scan installment payment: %w", err)
		}
		p.InstallmentID = i.ID
		p.PaymentDate = parseStoredDate(date)
		p.Status = core.PaymentStatus(status)
		i.Payments = append(i.Payments, p)
	}
	return rows.Err()
}
