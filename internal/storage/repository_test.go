package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"kameti/internal/core"
	"kameti/internal/rotation"
	"kameti/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "kameti.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMembersRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	m := core.Member{
		ID:         "m1",
		Name:       "Fatima",
		Phone:      "0300-1234567",
		NationalID: "35202-1234567-1",
		Address:    "Model Town",
		JoinDate:   core.NewDate(2024, 2, 1),
	}
	if err := repo.CreateMember(ctx, m); err != nil {
		t.Fatalf("CreateMember() error = %v", err)
	}
	if err := repo.CreateMember(ctx, m); !errors.Is(err, store.ErrExists) {
		t.Fatalf("CreateMember() duplicate error = %v, want ErrExists", err)
	}

	got, err := repo.GetMember(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMember() error = %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("GetMember() = %+v, want %+v", got, m)
	}

	m.Address = "Gulberg"
	if err := repo.UpdateMember(ctx, m); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}
	list, err := repo.ListMembers(ctx)
	if err != nil || len(list) != 1 || list[0].Address != "Gulberg" {
		t.Fatalf("ListMembers() = %+v, %v", list, err)
	}

	if _, err := repo.GetMember(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetMember() missing error = %v, want ErrNotFound", err)
	}
}

func TestCommitteeAggregateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	members := []string{"m1", "m2", "m1"}
	c := core.Committee{
		ID:              "c1",
		Title:           "Eid committee",
		Type:            core.Weekly,
		StartDate:       core.NewDate(2024, 3, 4),
		Duration:        2,
		AmountPerMember: core.Money{Cents: 150050},
		MemberIDs:       members,
		PayoutMethod:    core.PayoutManual,
		PayoutTurns:     rotation.InitializeTurns(members, core.PayoutManual, 2, nil),
	}
	created, err := repo.CreateCommittee(ctx, c)
	if err != nil {
		t.Fatalf("CreateCommittee() error = %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("CreateCommittee() version = %d, want 1", created.Version)
	}

	created.Payments = []core.CommitteePayment{
		{ID: "p1", MemberID: "m1", Period: 0, AmountPaid: core.Units(1500), PaymentDate: core.NewDate(2024, 3, 5), Status: core.PaymentCleared},
		{ID: "p2", MemberID: "m2", Period: 0, AmountPaid: core.Units(500), PaymentDate: core.NewDate(2024, 3, 6), Status: core.PaymentPending},
	}
	created.PayoutTurns[0] = rotation.ToggleTurnPaid(created.PayoutTurns[0], core.NewDate(2024, 3, 10))

	saved, err := repo.SaveCommittee(ctx, created)
	if err != nil {
		t.Fatalf("SaveCommittee() error = %v", err)
	}
	if saved.Version != 2 {
		t.Errorf("SaveCommittee() version = %d, want 2", saved.Version)
	}

	got, err := repo.GetCommittee(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCommittee() error = %v", err)
	}
	if !reflect.DeepEqual(got, saved) {
		t.Errorf("GetCommittee() = %+v\nwant %+v", got, saved)
	}

	if _, err := repo.SaveCommittee(ctx, created); !errors.Is(err, store.ErrConflict) {
		t.Errorf("SaveCommittee() stale error = %v, want ErrConflict", err)
	}
	missing := saved
	missing.ID = "c404"
	if _, err := repo.SaveCommittee(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SaveCommittee() missing error = %v, want ErrNotFound", err)
	}

	list, err := repo.ListCommittees(ctx)
	if err != nil || len(list) != 1 || len(list[0].Payments) != 2 {
		t.Fatalf("ListCommittees() = %+v, %v", list, err)
	}

	if err := repo.DeleteCommittee(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCommittee() error = %v", err)
	}
	if _, err := repo.GetCommittee(ctx, "c1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetCommittee() after delete error = %v", err)
	}
}

func TestInstallmentAggregateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	inst := core.Installment{
		ID:                 "i1",
		BuyerName:          "Hamza",
		BuyerPhone:         "0333-1112223",
		BuyerNationalID:    "42101-7654321-3",
		BuyerAddress:       "Saddar",
		ProductName:        "Galaxy A15",
		TotalPayment:       core.Units(60000),
		AdvancePayment:     core.Units(10000),
		MonthlyInstallment: core.Units(5000),
		StartDate:          core.NewDate(2024, 1, 15),
		Duration:           10,
		Status:             core.InstallmentOpen,
	}
	created, err := repo.CreateInstallment(ctx, inst)
	if err != nil {
		t.Fatalf("CreateInstallment() error = %v", err)
	}

	created.Payments = []core.InstallmentPayment{
		{ID: "ip1", InstallmentID: "i1", AmountPaid: core.Units(5000), PaymentDate: core.NewDate(2024, 1, 15), Status: core.PaymentPaid},
		{ID: "ip2", InstallmentID: "i1", AmountPaid: core.Units(5000), PaymentDate: core.NewDate(2024, 2, 15), Status: core.PaymentPaid},
	}
	saved, err := repo.SaveInstallment(ctx, created)
	if err != nil {
		t.Fatalf("SaveInstallment() error = %v", err)
	}

	got, err := repo.GetInstallment(ctx, "i1")
	if err != nil {
		t.Fatalf("GetInstallment() error = %v", err)
	}
	if !reflect.DeepEqual(got, saved) {
		t.Errorf("GetInstallment() = %+v\nwant %+v", got, saved)
	}

	if _, err := repo.SaveInstallment(ctx, created); !errors.Is(err, store.ErrConflict) {
		t.Errorf("SaveInstallment() stale error = %v, want ErrConflict", err)
	}
	if err := repo.DeleteInstallment(ctx, "i1"); err != nil {
		t.Fatalf("DeleteInstallment() error = %v", err)
	}
	if list, _ := repo.ListInstallments(ctx); len(list) != 0 {
		t.Errorf("ListInstallments() after delete = %+v", list)
	}
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}
	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("SchemaVersion() = %d, %v; want 1, false", version, dirty)
	}
}
