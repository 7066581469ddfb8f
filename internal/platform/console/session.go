// Package console is the operator front end of the desk: a numbered menu
// read from an input stream, with validation loops for every field and
// tabular reports.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/triage/internal/domain/emergency"
	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/symptom"
	"github.com/ehr/triage/internal/domain/triage"
	"github.com/ehr/triage/pkg/pagination"
)

// Desk is the part of the emergency desk a session drives.
type Desk interface {
	Admit(ctx context.Context, in emergency.Intake) (*emergency.Admission, error)
	CallNext(ctx context.Context, staff patient.Staff) (*patient.Patient, bool, error)
	Finish(ctx context.Context, cpf string, staff patient.Staff) (*patient.Patient, error)
	Patients(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error)
	Find(ctx context.Context, cpf string) (*patient.Patient, error)
	Registered(ctx context.Context, cpf string) bool
	Board() triage.Board
	Catalog() *symptom.Catalog
	FrontDesk() patient.Staff
	Nurse() patient.Staff
}

type Option func(*Session)

// WithClock sets the time used for wait figures in reports.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

type Session struct {
	desk      Desk
	in        *bufio.Scanner
	out       io.Writer
	physician patient.Staff
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSession reads operator input from in and writes prompts and reports
// to out. physician is recorded on calls and finished attendances.
func NewSession(desk Desk, in io.Reader, out io.Writer, physician patient.Staff, logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		desk:      desk,
		in:        bufio.NewScanner(in),
		out:       out,
		physician: physician,
		logger:    logger.With().Str("component", "console").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run shows the menu until the operator exits, input ends or ctx is done.
// End of input is a normal exit.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Debug().Msg("session started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printMenu()
		choice, err := s.readLine("Choose an option: ")
		if err != nil {
			return s.endOfInput(err)
		}

		switch choice {
		case "1":
			err = s.registerPatient(ctx)
		case "2":
			err = s.listPatients(ctx)
		case "3":
			err = WriteBoard(s.out, s.desk.Board())
		case "4":
			err = s.patientDetails(ctx)
		case "5":
			err = s.callNext(ctx)
		case "6":
			err = s.finishAttendance(ctx)
		case "0":
			s.println("Leaving the system. Goodbye!")
			return nil
		default:
			s.println("Invalid option. Try again.")
		}
		if err != nil {
			return s.endOfInput(err)
		}
	}
}

func (s *Session) endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		s.println("\nEnd of input. Goodbye!")
		return nil
	}
	return err
}

func (s *Session) printMenu() {
	s.println("\n--- TRIAGE DESK ---")
	s.println("1. Register new patient")
	s.println("2. List patients")
	s.println("3. View service queue")
	s.println("4. View patient details")
	s.println("5. Call next patient")
	s.println("6. Finish attendance")
	s.println("0. Exit")
}

func (s *Session) registerPatient(ctx context.Context) error {
	s.println("\n--- REGISTER NEW PATIENT ---")
	name, err := s.askName()
	if err != nil {
		return err
	}
	cpf, err := s.askCPF(ctx)
	if err != nil {
		return err
	}
	age, err := s.askAge()
	if err != nil {
		return err
	}
	sex, err := s.askSex()
	if err != nil {
		return err
	}
	sym, err := s.askSymptom()
	if err != nil {
		return err
	}

	adm, err := s.desk.Admit(ctx, emergency.Intake{Name: name, CPF: cpf, Age: age, Sex: sex, Symptom: sym})
	if err != nil {
		s.printf("Could not register patient: %v\n", err)
		return nil
	}
	if adm.CatalogWarning != nil {
		s.printf("Warning: %v. Patient classified as %s.\n", adm.CatalogWarning, adm.Patient.Severity)
	}
	p := adm.Patient

	s.println("\n--- FRONT DESK ---")
	s.printf("Patient %s registered by %s.\n", p.Name, s.desk.FrontDesk().Name)
	s.println("\n--- TRIAGE ---")
	s.printf("Triage by %s: %s\n", s.desk.Nurse().Name, adm.Outcome.Label)
	s.println("\n--- QUEUE ---")
	s.printf("%s added to the %s lane.\n", p.Name, adm.Lane)
	s.println("\n--- PATIENT ---")
	return WritePatient(s.out, p, s.now())
}

func (s *Session) listPatients(ctx context.Context) error {
	s.println("\n--- REGISTERED PATIENTS ---")
	page := pagination.New(pagination.MaxLimit, 0)
	for {
		list, total, err := s.desk.Patients(ctx, page.Limit, page.Offset)
		if err != nil {
			s.printf("Could not list patients: %v\n", err)
			return nil
		}
		if total == 0 {
			return WritePatients(s.out, nil, 1)
		}
		if err := WritePatients(s.out, list, page.Offset+1); err != nil {
			return err
		}
		if !page.HasNext(total) {
			return nil
		}
		page = pagination.New(page.Limit, page.NextOffset())
	}
}

func (s *Session) patientDetails(ctx context.Context) error {
	s.println("\n--- PATIENT DETAILS ---")
	input, err := s.readLine("Enter the patient's CPF: ")
	if err != nil {
		return err
	}
	p, err := s.desk.Find(ctx, input)
	switch {
	case errors.Is(err, patient.ErrInvalidCPF):
		s.println("Invalid CPF. Enter 11 digits.")
		return nil
	case err != nil:
		s.println("No patient found with that CPF.")
		return nil
	}
	return WritePatient(s.out, p, s.now())
}

func (s *Session) callNext(ctx context.Context) error {
	s.println("\n--- CALL NEXT PATIENT ---")
	p, ok, err := s.desk.CallNext(ctx, s.physician)
	if err != nil && p == nil {
		s.printf("Could not call next patient: %v\n", err)
		return nil
	}
	if !ok {
		s.println("No patients waiting.")
		return nil
	}
	if err != nil {
		s.printf("Patient %s was called but could not be updated: %v\n", p.Name, err)
		return nil
	}
	s.printf("Calling %s (%s, CPF %s), waited %d min. Attended by %s.\n",
		p.Name, p.Severity, p.CPF, p.WaitMinutes(s.now()), s.physician.Name)
	return nil
}

func (s *Session) finishAttendance(ctx context.Context) error {
	s.println("\n--- FINISH ATTENDANCE ---")
	input, err := s.readLine("Enter the patient's CPF: ")
	if err != nil {
		return err
	}
	p, err := s.desk.Finish(ctx, input, s.physician)
	switch {
	case errors.Is(err, patient.ErrInvalidCPF):
		s.println("Invalid CPF. Enter 11 digits.")
	case errors.Is(err, emergency.ErrNotFound):
		s.println("No patient found with that CPF.")
	case errors.Is(err, patient.ErrInvalidTransition):
		s.println("This patient has not been called yet or is already finished.")
	case err != nil:
		s.printf("Could not finish attendance: %v\n", err)
	default:
		s.printf("Attendance of %s finished.\n", p.Name)
	}
	return nil
}

func (s *Session) println(a ...interface{}) {
	fmt.Fprintln(s.out, a...)
}

func (s *Session) printf(format string, a ...interface{}) {
	fmt.Fprintf(s.out, format, a...)
}
