package payout_models

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/joy095/servicehub/utils"
)

// MemoryStore is an in-process Store. The per-professional lock is a mutex and
// inserts made under it are only visible once fn returns without error.
type MemoryStore struct {
	mu      sync.Mutex
	payouts map[uuid.UUID]Payout
	locks   map[uuid.UUID]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payouts: map[uuid.UUID]Payout{},
		locks:   map[uuid.UUID]*sync.Mutex{},
	}
}

func clonePayout(p Payout) Payout {
	if p.Notes != nil {
		n := *p.Notes
		p.Notes = &n
	}
	if p.Reference != nil {
		r := *p.Reference
		p.Reference = &r
	}
	if p.FailureReason != nil {
		f := *p.FailureReason
		p.FailureReason = &f
	}
	if p.ProcessedAt != nil {
		t := *p.ProcessedAt
		p.ProcessedAt = &t
	}
	return p
}

func (m *MemoryStore) lockFor(professionalID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[professionalID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[professionalID] = l
	}
	return l
}

type memLockedTx struct {
	store   *MemoryStore
	pending []Payout
}

func (t *memLockedTx) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Payout, error) {
	out, _ := t.store.ListByProfessional(ctx, professionalID)
	for _, p := range t.pending {
		if p.ProfessionalID == professionalID {
			out = append(out, clonePayout(p))
		}
	}
	return out, nil
}

func (t *memLockedTx) Insert(ctx context.Context, p *Payout) error {
	existing, _ := t.ListByProfessional(ctx, p.ProfessionalID)
	// mirrors idx_payouts_one_outstanding
	if p.Status.Outstanding() {
		for _, e := range existing {
			if e.Status.Outstanding() {
				return utils.ErrPayoutAlreadyPending
			}
		}
	}
	t.pending = append(t.pending, clonePayout(*p))
	return nil
}

func (m *MemoryStore) WithProfessionalLock(ctx context.Context, professionalID uuid.UUID, fn func(ctx context.Context, tx LockedTx) error) error {
	l := m.lockFor(professionalID)
	l.Lock()
	defer l.Unlock()

	tx := &memLockedTx{store: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range tx.pending {
		m.payouts[p.ID] = p
	}
	return nil
}

func (m *MemoryStore) ListByProfessional(_ context.Context, professionalID uuid.UUID) ([]Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Payout
	for _, p := range m.payouts {
		if p.ProfessionalID == professionalID {
			out = append(out, clonePayout(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return nil, utils.NotFound("payout not found")
	}
	c := clonePayout(p)
	return &c, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, p *Payout, from PayoutStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.payouts[p.ID]
	if !ok {
		return utils.NotFound("payout not found")
	}
	if cur.Status != from {
		return utils.Conflict("payout was modified by another request, please retry")
	}
	m.payouts[p.ID] = clonePayout(*p)
	return nil
}
