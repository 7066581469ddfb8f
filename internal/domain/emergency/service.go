// Package emergency runs the intake desk: it classifies arriving patients
// against the symptom catalog, registers them, performs triage and places
// them in the service queue.
package emergency

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/symptom"
	"github.com/ehr/triage/internal/domain/triage"
)

// VitalsSource supplies measurements for patients admitted without them.
type VitalsSource interface {
	Vitals() patient.Vitals
}

type Option func(*Service)

// WithClock replaces time.Now for arrival and status timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

type Service struct {
	// mu serializes status changes with queue operations so a patient is
	// never observed in the queue with a post-queue status.
	mu        sync.Mutex
	catalog   *symptom.Catalog
	repo      PatientRepository
	queue     *triage.Queue
	vitals    VitalsSource
	frontDesk patient.Staff
	nurse     patient.Staff
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService wires the desk. vitals may be nil, in which case patients
// without measurements are admitted unmeasured.
func NewService(catalog *symptom.Catalog, repo PatientRepository, queue *triage.Queue, vitals VitalsSource,
	frontDesk, nurse patient.Staff, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		repo:      repo,
		queue:     queue,
		vitals:    vitals,
		frontDesk: frontDesk,
		nurse:     nurse,
		logger:    logger.With().Str("component", "emergency").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit registers a patient, performs triage and enqueues them. A catalog
// that cannot be loaded does not block admission: the patient is classified
// MEDIUM and the failure is reported on the Admission.
func (s *Service) Admit(ctx context.Context, in Intake) (*Admission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	adm := &Admission{}

	name := strings.TrimSpace(in.Symptom)
	rec, found, err := s.catalog.Resolve(name)
	if err != nil {
		adm.CatalogWarning = err
		s.logger.Warn().Err(err).Msg("symptom catalog unavailable, classifying as MEDIUM")
	}
	if found {
		name = rec.Name
	}
	adm.KnownSymptom = found
	severity, _ := s.catalog.Classify(name)
	complaint, _ := s.catalog.DescriptionFor(name)

	vitals := in.Vitals
	if vitals == (patient.Vitals{}) && s.vitals != nil {
		vitals = s.vitals.Vitals()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, err := patient.New(patient.NewPatient{
		Name:    in.Name,
		CPF:     in.CPF,
		Age:     in.Age,
		Sex:     in.Sex,
		Symptom: name,
		Vitals:  vitals,
	}, severity, complaint, now)
	if err != nil {
		return nil, fmt.Errorf("admit: %w", err)
	}
	if _, err := patient.RegisterPatient(s.frontDesk, p, now); err != nil {
		return nil, fmt.Errorf("admit: %w", err)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("admit: %w", err)
	}
	outcome, err := patient.PerformTriage(s.nurse, p, now)
	if err != nil {
		return nil, fmt.Errorf("admit: triage: %w", err)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("admit: %w", err)
	}
	s.queue.Enqueue(p)

	adm.Patient = p
	adm.Outcome = outcome
	adm.Lane = triage.LaneStandard
	if p.IsCritical() {
		adm.Lane = triage.LaneCritical
	}

	s.logger.Info().
		Str("cpf", p.CPF).
		Str("symptom", p.SymptomName).
		Str("severity", p.Severity.String()).
		Str("lane", string(adm.Lane)).
		Bool("known_symptom", found).
		Msg("patient admitted")
	return adm, nil
}

// CallNext takes the next patient off the queue and starts their service.
// It returns false when nobody is waiting.
func (s *Service) CallNext(ctx context.Context, staff patient.Staff) (*patient.Patient, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.queue.Dequeue()
	if !ok {
		return nil, false, nil
	}
	now := s.now()
	wait := p.WaitMinutes(now)
	if _, err := patient.StartService(staff, p, now); err != nil {
		return p, true, fmt.Errorf("call next: %w", err)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return p, true, fmt.Errorf("call next: %w", err)
	}

	s.logger.Info().
		Str("cpf", p.CPF).
		Str("severity", p.Severity.String()).
		Int("wait_minutes", wait).
		Str("staff", staff.Name).
		Msg("patient called")
	return p, true, nil
}

// Finish closes the attendance of the patient with the given CPF.
func (s *Service) Finish(ctx context.Context, cpf string, staff patient.Staff) (*patient.Patient, error) {
	canonical, err := patient.NormalizeCPF(cpf)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByCPF(ctx, canonical)
	if err != nil {
		return nil, err
	}
	if _, err := patient.Finish(staff, p, s.now()); err != nil {
		return nil, fmt.Errorf("finish %s: %w", canonical, err)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("finish %s: %w", canonical, err)
	}

	s.logger.Info().Str("cpf", p.CPF).Str("staff", staff.Name).Msg("attendance finished")
	return p, nil
}

// Patients lists registered patients in registration order.
func (s *Service) Patients(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Find looks a patient up by CPF in any accepted spelling.
func (s *Service) Find(ctx context.Context, cpf string) (*patient.Patient, error) {
	canonical, err := patient.NormalizeCPF(cpf)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByCPF(ctx, canonical)
}

// Registered reports whether a patient with this CPF already exists.
func (s *Service) Registered(ctx context.Context, cpf string) bool {
	_, err := s.Find(ctx, cpf)
	return err == nil
}

func (s *Service) Board() triage.Board {
	return s.queue.Snapshot()
}

func (s *Service) QueueSizes() QueueSizes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return QueueSizes{
		Total:    s.queue.Size(),
		Critical: s.queue.CriticalCount(),
		Standard: s.queue.StandardCount(),
	}
}

// Catalog exposes the catalog the desk classifies against.
func (s *Service) Catalog() *symptom.Catalog {
	return s.catalog
}

func (s *Service) FrontDesk() patient.Staff { return s.frontDesk }

func (s *Service) Nurse() patient.Staff { return s.nurse }
