package memory

import (
	"context"
	"fmt"
	"sync"

	ports "kameti/internal/sheets"
)

// Mirror keeps mirrored rows in process. Used when no spreadsheet is
// configured and in tests.
type Mirror struct {
	mu   sync.Mutex
	rows []ports.Row
	seen map[string]struct{}
}

var (
	_ ports.PaymentMirror = (*Mirror)(nil)
	_ ports.RowLister     = (*Mirror)(nil)
)

func New() *Mirror {
	return &Mirror{seen: map[string]struct{}{}}
}

// AppendRow stores r and returns a synthetic row reference. A row whose
// EventID was already appended is ignored, so redelivered events do not
// duplicate lines.
func (m *Mirror) AppendRow(_ context.Context, r ports.Row) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.EventID != "" {
		if _, dup := m.seen[r.EventID]; dup {
			return "mem:dup", nil
		}
		m.seen[r.EventID] = struct{}{}
	}
	m.rows = append(m.rows, r)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) ListRows(_ context.Context) ([]ports.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Row(nil), m.rows...), nil
}
