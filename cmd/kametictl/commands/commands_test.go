package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const seed = `{
  "members": [
    {"id":"m1","name":"Ali","phone":"0300-1234567","joinDate":"2024-01-01"},
    {"id":"m2","name":"Sana","phone":"0321-7654321","joinDate":"2024-01-01"}
  ],
  "committees": [{
    "id":"c1","title":"Office","type":"Monthly","startDate":"2024-01-01","duration":2,
    "amountPerMember":1000,"memberIds":["m1","m2"],"payoutMethod":"Manual",
    "payments":[{"id":"p1","memberId":"m1","periodIndex":0,"amountPaid":1000,"paymentDate":"2024-01-05","status":"Cleared"}],
    "payoutTurns":[{"slot":0,"memberId":"m1","turnPeriodIndex":0},{"slot":1,"memberId":"m2","turnPeriodIndex":1}]
  }]
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed.json"), []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_DIRECTORY", dir)
	t.Setenv("LOG_LEVEL", "error")

	todayFlag, alertsJSON, exportOutput = "", false, ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"dashboard", []string{"dashboard", "--today", "2024-01-20"}, `"today": "2024-01-20"`, false},
		{"alerts", []string{"alerts", "--today", "2024-01-20"}, "c1", false},
		{"alerts json", []string{"alerts", "--json", "--today", "2024-01-20"}, `"overdueCommittees"`, false},
		{"committee receipt", []string{"receipt", "committee", "c1", "p1"}, "Ali", false},
		{"unknown receipt kind", []string{"receipt", "loan", "c1", "p1"}, "", true},
		{"missing payment", []string{"receipt", "committee", "c1", "nope"}, "", true},
		{"bad today", []string{"dashboard", "--today", "20-01-2024"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("kametictl %v error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("kametictl %v output = %q, want it to contain %q", tt.args, out, tt.want)
			}
		})
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	if _, err := run(t, "export", "-o", path, "--today", "2024-01-20"); err != nil {
		t.Fatalf("export error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("export should write a zip container")
	}
}

func TestMigrate(t *testing.T) {
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "kameti.db"))

	out, err := run(t, "migrate", "up")
	if err != nil {
		t.Fatalf("migrate up error = %v", err)
	}
	if !strings.Contains(out, "(clean)") || strings.Contains(out, "version 0 ") {
		t.Errorf("migrate up output = %q, want a clean non-zero version", out)
	}
}
