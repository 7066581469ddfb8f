package console

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/ehr/triage/internal/domain/patient"
)

// readLine prints label and returns the next trimmed input line. It returns
// io.EOF once input is exhausted.
func (s *Session) readLine(label string) (string, error) {
	s.printf("%s", label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Session) askName() (string, error) {
	for {
		in, err := s.readLine("Patient's full name: ")
		if err != nil {
			return "", err
		}
		name, err := patient.ValidateName(in)
		if err == nil {
			return name, nil
		}
		s.println("Invalid name. It must have at least 3 characters.")
	}
}

func (s *Session) askCPF(ctx context.Context) (string, error) {
	for {
		in, err := s.readLine("Patient's CPF (11 digits): ")
		if err != nil {
			return "", err
		}
		cpf, err := patient.NormalizeCPF(in)
		if err != nil {
			s.println("Invalid CPF. Enter 11 digits.")
			continue
		}
		if s.desk.Registered(ctx, cpf) {
			s.println("CPF already registered for another patient. Please check.")
			continue
		}
		return cpf, nil
	}
}

func (s *Session) askAge() (int, error) {
	for {
		in, err := s.readLine("Patient's age: ")
		if err != nil {
			return 0, err
		}
		age, err := patient.ParseAge(in)
		if err == nil {
			return age, nil
		}
		s.printf("Invalid age. Enter a number between %d and %d.\n", patient.MinAge, patient.MaxAge)
	}
}

func (s *Session) askSex() (patient.Sex, error) {
	for {
		in, err := s.readLine("Patient's sex (M/F): ")
		if err != nil {
			return "", err
		}
		sex, err := patient.ParseSex(in)
		if err == nil {
			return sex, nil
		}
		s.println("Invalid sex. Enter 'M' for male or 'F' for female.")
	}
}

// askSymptom offers the catalog as a numbered list. The operator may answer
// with a number, a catalog name in any case, or, after confirming, a
// symptom the catalog does not know.
func (s *Session) askSymptom() (string, error) {
	catalog := s.desk.Catalog()
	s.println("\n--- SYMPTOMS ---")
	grouped, err := catalog.GroupedBySeverity()
	if err != nil {
		s.printf("Warning: %v. Unknown symptoms are classified as MEDIUM.\n", err)
		s.logger.Warn().Err(err).Msg("symptom catalog unavailable")
	}
	options := OrderedRecords(grouped)
	if err := WriteCatalog(s.out, grouped); err != nil {
		return "", err
	}

	for {
		in, err := s.readLine("Enter the symptom number or name: ")
		if err != nil {
			return "", err
		}
		if in == "" {
			s.println("Please enter a symptom.")
			continue
		}
		if n, convErr := strconv.Atoi(in); convErr == nil {
			if n >= 1 && n <= len(options) {
				return options[n-1].Name, nil
			}
			s.println("Invalid option. Enter a listed number or a symptom name.")
			continue
		}
		if rec, ok, _ := catalog.Resolve(in); ok {
			return rec.Name, nil
		}
		confirm, err := s.readLine("\"" + in + "\" is not in the catalog and will be classified MEDIUM. Use it anyway? (y/N): ")
		if err != nil {
			return "", err
		}
		if strings.EqualFold(confirm, "y") || strings.EqualFold(confirm, "yes") {
			return in, nil
		}
	}
}
