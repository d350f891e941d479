package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kameti/internal/core"
	"kameti/internal/store"
)

var _ store.Repository = (*Store)(nil)

func testCommittee(id string) core.Committee {
	return core.Committee{
		ID:              id,
		Title:           "Test",
		Type:            core.Monthly,
		StartDate:       core.NewDate(2024, 1, 1),
		Duration:        3,
		AmountPerMember: core.Units(1000),
		MemberIDs:       []string{"m1", "m2", "m1"},
		PayoutMethod:    core.PayoutManual,
	}
}

func TestMemberLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	m := core.Member{ID: "m1", Name: "Ayesha", Phone: "0300-1234567", JoinDate: core.NewDate(2024, 1, 1)}
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatalf("CreateMember() error = %v", err)
	}
	if err := s.CreateMember(ctx, m); !errors.Is(err, store.ErrExists) {
		t.Fatalf("CreateMember() duplicate error = %v, want ErrExists", err)
	}
	if err := s.CreateMember(ctx, core.Member{ID: "m2", Name: "x", Phone: "bad"}); !errors.Is(err, core.ErrInvalidPhone) {
		t.Fatalf("CreateMember() invalid phone error = %v", err)
	}

	m.Address = "Lahore"
	if err := s.UpdateMember(ctx, m); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}
	got, err := s.GetMember(ctx, "m1")
	if err != nil || got.Address != "Lahore" {
		t.Fatalf("GetMember() = %+v, %v", got, err)
	}
	if _, err := s.GetMember(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetMember() missing error = %v", err)
	}
}

func TestCommitteeOptimisticVersion(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.CreateCommittee(ctx, testCommittee("c1"))
	if err != nil {
		t.Fatalf("CreateCommittee() error = %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("CreateCommittee() version = %d, want 1", created.Version)
	}

	first := created
	first.Payments = append(first.Payments, core.CommitteePayment{
		ID: "p1", MemberID: "m1", Period: 0, AmountPaid: core.Units(1000),
		PaymentDate: core.NewDate(2024, 1, 3), Status: core.PaymentCleared,
	})
	saved, err := s.SaveCommittee(ctx, first)
	if err != nil {
		t.Fatalf("SaveCommittee() error = %v", err)
	}
	if saved.Version != 2 {
		t.Errorf("SaveCommittee() version = %d, want 2", saved.Version)
	}

	// created still carries version 1
	if _, err := s.SaveCommittee(ctx, created); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("SaveCommittee() stale error = %v, want ErrConflict", err)
	}

	got, err := s.GetCommittee(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCommittee() error = %v", err)
	}
	if len(got.Payments) != 1 || len(got.MemberIDs) != 3 {
		t.Errorf("GetCommittee() = %+v", got)
	}

	got.Payments[0].AmountPaid = core.Units(1)
	again, _ := s.GetCommittee(ctx, "c1")
	if again.Payments[0].AmountPaid != core.Units(1000) {
		t.Error("GetCommittee() returned shared slices")
	}
}

func TestDeleteIsExplicit(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.CreateCommittee(ctx, testCommittee("c1")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateCommittee(ctx, testCommittee("c2")); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCommittee(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCommittee() error = %v", err)
	}
	list, _ := s.ListCommittees(ctx)
	if len(list) != 1 || list[0].ID != "c2" {
		t.Errorf("ListCommittees() = %+v", list)
	}
	if err := s.DeleteCommittee(ctx, "c1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteCommittee() twice error = %v", err)
	}
}

func TestInstallmentVersion(t *testing.T) {
	ctx := context.Background()
	s := New()
	inst := core.Installment{
		ID: "i1", BuyerName: "Kamran", BuyerPhone: "0321-7654321", ProductName: "TV",
		TotalPayment: core.Units(5000), AdvancePayment: core.Units(1000), MonthlyInstallment: core.Units(1000),
		StartDate: core.NewDate(2024, 1, 1), Duration: 4, Status: core.InstallmentOpen,
	}
	created, err := s.CreateInstallment(ctx, inst)
	if err != nil {
		t.Fatalf("CreateInstallment() error = %v", err)
	}
	if _, err := s.SaveInstallment(ctx, created); err != nil {
		t.Fatalf("SaveInstallment() error = %v", err)
	}
	if _, err := s.SaveInstallment(ctx, created); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("SaveInstallment() stale error = %v, want ErrConflict", err)
	}
	if err := s.DeleteInstallment(ctx, "i1"); err != nil {
		t.Fatalf("DeleteInstallment() error = %v", err)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	if list, _ := s.ListMembers(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store without seed, got %v", list)
	}

	seed := `{
  "members": [{"id": "m1", "name": "Ali", "phone": "0300-1234567", "joinDate": "2024-01-01"}],
  "committees": [{"id": "c1", "title": "Seeded", "type": "Monthly", "startDate": "2024-01-01",
    "duration": 2, "amountPerMember": 500, "memberIds": ["m1"], "payoutMethod": "Manual"}]
}`
	if err := os.WriteFile(filepath.Join(dir, "seed.json"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	c, err := s.GetCommittee(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetCommittee() error = %v", err)
	}
	if c.Version != 1 || c.AmountPerMember != core.Units(500) {
		t.Errorf("seeded committee = %+v", c)
	}
}
