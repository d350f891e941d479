package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"kameti/internal/core"
)

func sampleCommittee() core.Committee {
	return core.Committee{
		ID:              "c1",
		Title:           "Office committee",
		Type:            core.Monthly,
		StartDate:       core.NewDate(2024, 1, 1),
		Duration:        3,
		AmountPerMember: core.Units(1000),
		MemberIDs:       []string{"m1", "m2", "m1"},
		PayoutMethod:    core.PayoutManual,
		Payments: []core.CommitteePayment{
			{ID: "p1", MemberID: "m1", Period: 1, AmountPaid: core.Money{Cents: 150050}, PaymentDate: core.NewDate(2024, 2, 3), Status: core.PaymentCleared},
			{ID: "p2", MemberID: "m2", Period: 0, AmountPaid: core.Units(1000), PaymentDate: core.NewDate(2024, 1, 5), Status: core.PaymentPending},
		},
	}
}

func sampleInstallment() core.Installment {
	return core.Installment{
		ID:                 "i1",
		BuyerName:          "Hamza",
		BuyerPhone:         "0333-1112223",
		ProductName:        "Galaxy A15",
		TotalPayment:       core.Units(12000),
		AdvancePayment:     core.Units(2000),
		MonthlyInstallment: core.Units(5000),
		StartDate:          core.NewDate(2024, 1, 10),
		Duration:           2,
		Status:             core.InstallmentOpen,
		Payments: []core.InstallmentPayment{
			{ID: "ip2", InstallmentID: "i1", AmountPaid: core.Units(5000), PaymentDate: core.NewDate(2024, 2, 10), Status: core.PaymentPaid},
			{ID: "ip1", InstallmentID: "i1", AmountPaid: core.Units(5000), PaymentDate: core.NewDate(2024, 1, 10), Status: core.PaymentPaid},
		},
	}
}

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{150050, "one thousand five hundred rupees and fifty paisa"},
		{500000, "five thousand rupees"},
		{0, "zero rupees"},
		{-200, "minus two rupees"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := AmountInWords(core.Money{Cents: tt.cents}); got != tt.want {
				t.Errorf("AmountInWords(%d) = %q, want %q", tt.cents, got, tt.want)
			}
		})
	}
}

func TestCommitteeReceipt(t *testing.T) {
	c := sampleCommittee()
	payer := core.Member{ID: "m1", Name: "Fatima", Phone: "0300-1234567"}

	r, err := CommitteeReceipt(c, payer, "p1", "en")
	if err != nil {
		t.Fatalf("CommitteeReceipt() error = %v", err)
	}
	if r.Payer != "Fatima" || r.PeriodLabel != "February 2024" {
		t.Errorf("CommitteeReceipt() = %+v", r)
	}
	// m1 holds two shares: due 2000, paid 1500.50.
	if r.Collected.Cents != 150050 || r.Balance.Cents != 49950 {
		t.Errorf("Collected, Balance = %v, %v; want 1500.5, 499.5", r.Collected, r.Balance)
	}

	text := r.Text()
	for _, want := range []string{"Committee receipt: Office committee", "Received from: Fatima", "For: February 2024 (period 2)", "only"} {
		if !strings.Contains(text, want) {
			t.Errorf("Text() missing %q:\n%s", want, text)
		}
	}

	if _, err := CommitteeReceipt(c, payer, "nope", "en"); !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("CommitteeReceipt() missing error = %v, want ErrPaymentNotFound", err)
	}
}

func TestCommitteeReceipt_PendingPaymentLeavesBalance(t *testing.T) {
	r, err := CommitteeReceipt(sampleCommittee(), core.Member{}, "p2", "ur")
	if err != nil {
		t.Fatalf("CommitteeReceipt() error = %v", err)
	}
	if r.Payer != "m2" {
		t.Errorf("Payer = %q, want member id fallback", r.Payer)
	}
	if !r.Collected.IsZero() || r.Balance.Cents != 100000 {
		t.Errorf("Collected, Balance = %v, %v; want 0, 1000", r.Collected, r.Balance)
	}
	if r.PeriodLabel != "جنوری 2024" {
		t.Errorf("PeriodLabel = %q", r.PeriodLabel)
	}
}

func TestInstallmentReceipt(t *testing.T) {
	i := sampleInstallment()

	r, err := InstallmentReceipt(i, "ip2", "en")
	if err != nil {
		t.Fatalf("InstallmentReceipt() error = %v", err)
	}
	if r.Period != 1 || r.PeriodLabel != "February 2024" {
		t.Errorf("Period, PeriodLabel = %d, %q; want 1, February 2024", r.Period, r.PeriodLabel)
	}
	if r.Collected.Cents != 1000000 || !r.Balance.IsZero() {
		t.Errorf("Collected, Balance = %v, %v; want 10000, 0", r.Collected, r.Balance)
	}
	if !strings.HasPrefix(r.Text(), "Installment receipt: Galaxy A15") {
		t.Errorf("Text() = %q", r.Text())
	}
}

func TestExportWorkbook(t *testing.T) {
	var buf bytes.Buffer
	today := core.NewDate(2024, 2, 15)
	if err := ExportWorkbook(&buf, []core.Committee{sampleCommittee()}, []core.Installment{sampleInstallment()}, today); err != nil {
		t.Fatalf("ExportWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	tests := []struct {
		sheet    string
		wantRows int
	}{
		{SheetCommittees, 2},
		{SheetInstallments, 2},
		{SheetPayments, 5},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			rows, err := f.GetRows(tt.sheet)
			if err != nil {
				t.Fatalf("GetRows(%s) error = %v", tt.sheet, err)
			}
			if len(rows) != tt.wantRows {
				t.Errorf("GetRows(%s) = %d rows, want %d", tt.sheet, len(rows), tt.wantRows)
			}
		})
	}

	rows, _ := f.GetRows(SheetInstallments)
	if got := rows[1][11]; got != "Closed" {
		t.Errorf("installment status cell = %q, want Closed", got)
	}
	rows, _ = f.GetRows(SheetCommittees)
	if got := rows[1][7]; got != "1" {
		t.Errorf("current period cell = %q, want 1", got)
	}
}
