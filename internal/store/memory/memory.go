package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kameti/internal/core"
	"kameti/internal/store"
)

// Store keeps every aggregate in process memory. Listing preserves
// insertion order.
type Store struct {
	mu           sync.Mutex
	members      []core.Member
	committees   []core.Committee
	installments []core.Installment
}

func New() *Store {
	return &Store{}
}

// Seed is the on-disk shape read by NewFromFiles.
type Seed struct {
	Members      []core.Member      `json:"members"`
	Committees   []core.Committee   `json:"committees"`
	Installments []core.Installment `json:"installments"`
}

// NewFromFiles loads seed.json from base when present. A missing or
// unreadable seed yields an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	data, err := os.ReadFile(filepath.Join(base, "seed.json"))
	if err != nil {
		return s
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return s
	}
	s.members = append(s.members, seed.Members...)
	for _, c := range seed.Committees {
		c.Version = max(c.Version, 1)
		s.committees = append(s.committees, c.Clone())
	}
	for _, i := range seed.Installments {
		i.Version = max(i.Version, 1)
		s.installments = append(s.installments, i.Clone())
	}
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateMember(_ context.Context, m core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberIndex(m.ID) >= 0 {
		return fmt.Errorf("member %s: %w", m.ID, store.ErrExists)
	}
	s.members = append(s.members, m)
	return nil
}

func (s *Store) UpdateMember(_ context.Context, m core.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.memberIndex(m.ID)
	if idx < 0 {
		return fmt.Errorf("member %s: %w", m.ID, store.ErrNotFound)
	}
	s.members[idx] = m
	return nil
}

func (s *Store) GetMember(_ context.Context, id string) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.memberIndex(id)
	if idx < 0 {
		return core.Member{}, fmt.Errorf("member %s: %w", id, store.ErrNotFound)
	}
	return s.members[idx], nil
}

func (s *Store) ListMembers(_ context.Context) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Member(nil), s.members...), nil
}

func (s *Store) CreateCommittee(_ context.Context, c core.Committee) (core.Committee, error) {
	if err := c.Validate(); err != nil {
		return core.Committee{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committeeIndex(c.ID) >= 0 {
		return core.Committee{}, fmt.Errorf("committee %s: %w", c.ID, store.ErrExists)
	}
	c = c.Clone()
	c.Version = 1
	s.committees = append(s.committees, c)
	return c.Clone(), nil
}

func (s *Store) SaveCommittee(_ context.Context, c core.Committee) (core.Committee, error) {
	if err := c.Validate(); err != nil {
		return core.Committee{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.committeeIndex(c.ID)
	if idx < 0 {
		return core.Committee{}, fmt.Errorf("committee %s: %w", c.ID, store.ErrNotFound)
	}
	if s.committees[idx].Version != c.Version {
		return core.Committee{}, fmt.Errorf("committee %s at version %d: %w", c.ID, c.Version, store.ErrConflict)
	}
	c = c.Clone()
	c.Version++
	s.committees[idx] = c
	return c.Clone(), nil
}

func (s *Store) GetCommittee(_ context.Context, id string) (core.Committee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.committeeIndex(id)
	if idx < 0 {
		return core.Committee{}, fmt.Errorf("committee %s: %w", id, store.ErrNotFound)
	}
	return s.committees[idx].Clone(), nil
}

func (s *Store) ListCommittees(_ context.Context) ([]core.Committee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Committee, 0, len(s.committees))
	for _, c := range s.committees {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (s *Store) DeleteCommittee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.committeeIndex(id)
	if idx < 0 {
		return fmt.Errorf("committee %s: %w", id, store.ErrNotFound)
	}
	s.committees = append(s.committees[:idx], s.committees[idx+1:]...)
	return nil
}

func (s *Store) CreateInstallment(_ context.Context, i core.Installment) (core.Installment, error) {
	if err := i.Validate(); err != nil {
		return core.Installment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installmentIndex(i.ID) >= 0 {
		return core.Installment{}, fmt.Errorf("installment %s: %w", i.ID, store.ErrExists)
	}
	i = i.Clone()
	i.Version = 1
	s.installments = append(s.installments, i)
	return i.Clone(), nil
}

func (s *Store) SaveInstallment(_ context.Context, i core.Installment) (core.Installment, error) {
	if err := i.Validate(); err != nil {
		return core.Installment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.installmentIndex(i.ID)
	if idx < 0 {
		return core.Installment{}, fmt.Errorf("installment %s: %w", i.ID, store.ErrNotFound)
	}
	if s.installments[idx].Version != i.Version {
		return core.Installment{}, fmt.Errorf("installment %s at version %d: %w", i.ID, i.Version, store.ErrConflict)
	}
	i = i.Clone()
	i.Version++
	s.installments[idx] = i
	return i.Clone(), nil
}

func (s *Store) GetInstallment(_ context.Context, id string) (core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.installmentIndex(id)
	if idx < 0 {
		return core.Installment{}, fmt.Errorf("installment %s: %w", id, store.ErrNotFound)
	}
	return s.installments[idx].Clone(), nil
}

func (s *Store) ListInstallments(_ context.Context) ([]core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Installment, 0, len(s.installments))
	for _, i := range s.installments {
		out = append(out, i.Clone())
	}
	return out, nil
}

func (s *Store) DeleteInstallment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.installmentIndex(id)
	if idx < 0 {
		return fmt.Errorf("installment %s: %w", id, store.ErrNotFound)
	}
	s.installments = append(s.installments[:idx], s.installments[idx+1:]...)
	return nil
}

func (s *Store) memberIndex(id string) int {
	for i, m := range s.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) committeeIndex(id string) int {
	for i, c := range s.committees {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) installmentIndex(id string) int {
	for i, inst := range s.installments {
		if inst.ID == id {
			return i
		}
	}
	return -1
}
