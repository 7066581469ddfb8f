package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/triage/internal/domain/emergency"
	"github.com/ehr/triage/internal/domain/triage"
)

// Admitter is the part of the desk the seeder drives.
type Admitter interface {
	Admit(ctx context.Context, in emergency.Intake) (*emergency.Admission, error)
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Admitted int           `json:"admitted"`
	Critical int           `json:"critical"`
	Standard int           `json:"standard"`
	Unknown  int           `json:"unknown_symptoms"`
	Span     time.Duration `json:"span"`
}

// Seeder admits generated patients into a desk, spacing arrivals on a
// simulated clock.
type Seeder struct {
	generator *Generator
	clock     *SimClock
	symptoms  []string
	logger    zerolog.Logger

	mu         sync.RWMutex
	admissions []*emergency.Admission
}

func NewSeeder(generator *Generator, clock *SimClock, symptoms []string, logger zerolog.Logger) *Seeder {
	return &Seeder{
		generator: generator,
		clock:     clock,
		symptoms:  symptoms,
		logger:    logger.With().Str("component", "sandbox").Logger(),
	}
}

// Run admits n patients. Consecutive arrivals are 0 to 15 simulated
// minutes apart; the first arrives at the clock's current time.
func (s *Seeder) Run(ctx context.Context, desk Admitter, n int) (*SeedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &SeedResult{}
	begin := s.clock.Now()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if i > 0 {
			s.clock.Advance(s.generator.ArrivalGap())
		}
		adm, err := desk.Admit(ctx, s.generator.Intake(s.symptoms))
		if err != nil {
			return result, fmt.Errorf("seed patient %d: %w", i+1, err)
		}
		s.admissions = append(s.admissions, adm)
		result.Admitted++
		if adm.Lane == triage.LaneCritical {
			result.Critical++
		} else {
			result.Standard++
		}
		if !adm.KnownSymptom {
			result.Unknown++
		}
	}
	result.Span = s.clock.Now().Sub(begin)

	s.logger.Info().
		Int("admitted", result.Admitted).
		Int("critical", result.Critical).
		Int("standard", result.Standard).
		Dur("span", result.Span).
		Msg("demo patients seeded")
	return result, nil
}

// Admissions returns every admission made by this seeder so far.
func (s *Seeder) Admissions() []*emergency.Admission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*emergency.Admission, len(s.admissions))
	copy(out, s.admissions)
	return out
}

// ExportNDJSON writes the admitted patients as newline-delimited JSON.
func (s *Seeder) ExportNDJSON(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enc := json.NewEncoder(w)
	for _, adm := range s.admissions {
		if err := enc.Encode(adm); err != nil {
			return fmt.Errorf("encoding admission %s: %w", adm.Patient.CPF, err)
		}
	}
	return nil
}
