package job_models

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/joy095/servicehub/utils"
)

// MemoryStore is an in-process Store with the same copy and version semantics
// as PgStore. Handlers are tested against it.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: map[uuid.UUID]Job{}}
}

// clone copies everything a caller could mutate through a pointer.
func clone(j Job) Job {
	if j.Commission != nil {
		b := *j.Commission
		j.Commission = &b
	}
	if j.CashPaymentDetails != nil {
		d := *j.CashPaymentDetails
		d.ReceiptPhotos = append([]string(nil), d.ReceiptPhotos...)
		if d.DisputeDetails != nil {
			dd := *d.DisputeDetails
			d.DisputeDetails = &dd
		}
		j.CashPaymentDetails = &d
	}
	return j
}

func (m *MemoryStore) Create(_ context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = clone(*job)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, utils.NotFound("job not found")
	}
	c := clone(j)
	return &c, nil
}

func (m *MemoryStore) GetByRazorpayOrderID(_ context.Context, orderID string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.RazorpayOrderID != nil && *j.RazorpayOrderID == orderID {
			c := clone(j)
			return &c, nil
		}
	}
	return nil, utils.NotFound("no job for order %s", orderID)
}

func (m *MemoryStore) Update(_ context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[job.ID]
	if !ok {
		return utils.NotFound("job not found")
	}
	if cur.Version != job.Version {
		return utils.Conflict("job was modified by another request, please retry")
	}
	job.Version++
	m.jobs[job.ID] = clone(*job)
	return nil
}

func (m *MemoryStore) ListCompletedByProfessional(_ context.Context, professionalID uuid.UUID) ([]Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Job
	for _, j := range m.jobs {
		if j.Status == StatusCompleted && j.IsProfessional(professionalID) {
			out = append(out, clone(j))
		}
	}
	return out, nil
}
