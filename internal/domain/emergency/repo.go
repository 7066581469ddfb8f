package emergency

import (
	"context"
	"errors"

	"github.com/ehr/triage/internal/domain/patient"
)

var (
	ErrDuplicateCPF = errors.New("patient with this CPF is already registered")
	ErrNotFound     = errors.New("patient not found")
)

// PatientRepository stores registered patients keyed by canonical CPF.
// Implementations hand out the stored pointers; the desk mutates them
// in place and calls Update to record the change.
type PatientRepository interface {
	Create(ctx context.Context, p *patient.Patient) error
	GetByCPF(ctx context.Context, cpf string) (*patient.Patient, error)
	Update(ctx context.Context, p *patient.Patient) error
	List(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error)
}
