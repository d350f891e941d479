// Package store declares the persistence ports used by the services.
//
// Committees and installments are saved as whole aggregates: a committee
// together with its membership, payments and payout turns; an installment
// together with its payments. Implementations apply a save atomically and
// use the aggregate's Version for optimistic concurrency.
package store

import (
	"context"
	"errors"

	"kameti/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a save against a stale Version.
	ErrConflict = errors.New("version conflict")
	ErrExists   = errors.New("already exists")
)

// Ports for persistence adapters.
type (
	MemberRepository interface {
		CreateMember(ctx context.Context, m core.Member) error
		UpdateMember(ctx context.Context, m core.Member) error
		GetMember(ctx context.Context, id string) (core.Member, error)
		ListMembers(ctx context.Context) ([]core.Member, error)
	}

	CommitteeRepository interface {
		// CreateCommittee inserts c and returns it with Version 1.
		CreateCommittee(ctx context.Context, c core.Committee) (core.Committee, error)
		// SaveCommittee replaces the stored aggregate when c.Version matches
		// and returns it with the next Version.
		SaveCommittee(ctx context.Context, c core.Committee) (core.Committee, error)
		GetCommittee(ctx context.Context, id string) (core.Committee, error)
		ListCommittees(ctx context.Context) ([]core.Committee, error)
		DeleteCommittee(ctx context.Context, id string) error
	}

	InstallmentRepository interface {
		CreateInstallment(ctx context.Context, i core.Installment) (core.Installment, error)
		SaveInstallment(ctx context.Context, i core.Installment) (core.Installment, error)
		GetInstallment(ctx context.Context, id string) (core.Installment, error)
		ListInstallments(ctx context.Context) ([]core.Installment, error)
		DeleteInstallment(ctx context.Context, id string) error
	}

	Repository interface {
		MemberRepository
		CommitteeRepository
		InstallmentRepository
		Close() error
	}
)
