package emergency

import (
	"context"
	"fmt"
	"sync"

	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/pkg/pagination"
)

type memoryRepo struct {
	mu    sync.RWMutex
	byCPF map[string]*patient.Patient
	order []string
}

// NewMemoryRepository returns a PatientRepository that lives for the
// lifetime of the process. List returns patients in registration order.
func NewMemoryRepository() PatientRepository {
	return &memoryRepo{byCPF: make(map[string]*patient.Patient)}
}

func (r *memoryRepo) Create(ctx context.Context, p *patient.Patient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCPF[p.CPF]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCPF, p.CPF)
	}
	r.byCPF[p.CPF] = p
	r.order = append(r.order, p.CPF)
	return nil
}

func (r *memoryRepo) GetByCPF(ctx context.Context, cpf string) (*patient.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byCPF[cpf]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cpf)
	}
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, p *patient.Patient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCPF[p.CPF]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p.CPF)
	}
	r.byCPF[p.CPF] = p
	return nil
}

func (r *memoryRepo) List(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	page := pagination.Window(r.order, pagination.New(limit, offset))
	result := make([]*patient.Patient, 0, len(page))
	for _, cpf := range page {
		result = append(result, r.byCPF[cpf])
	}
	return result, len(r.order), nil
}
