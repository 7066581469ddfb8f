package patient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength = 3
	MinAge        = 1
	MaxAge        = 150
	MinOxygen     = 95
	MaxOxygen     = 100
)

var (
	ErrInvalidName       = errors.New("name must have at least 3 characters")
	ErrInvalidCPF        = errors.New("cpf must have exactly 11 digits")
	ErrInvalidAge        = errors.New("age must be between 1 and 150")
	ErrInvalidSex        = errors.New("sex must be M or F")
	ErrInvalidSeverity   = errors.New("severity is not set")
	ErrInvalidVitals     = errors.New("invalid vitals")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidateName trims the name and checks its length in characters.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// NormalizeCPF accepts 11 digits, bare or punctuated with '.' and '-', and
// returns them in the 000.000.000-00 form.
func NormalizeCPF(in string) (string, error) {
	digits := make([]rune, 0, 11)
	for _, r := range strings.TrimSpace(in) {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, r)
		case r == '.' || r == '-':
		default:
			return "", ErrInvalidCPF
		}
	}
	if len(digits) != 11 {
		return "", ErrInvalidCPF
	}
	d := string(digits)
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:], nil
}

func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return ErrInvalidAge
	}
	return nil
}

// ParseAge parses operator input into a validated age.
func ParseAge(in string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(in))
	if err != nil {
		return 0, ErrInvalidAge
	}
	if err := ValidateAge(age); err != nil {
		return 0, err
	}
	return age, nil
}

// ParseSex accepts M/F (any case) and the spelled-out forms.
func ParseSex(in string) (Sex, error) {
	switch strings.ToUpper(strings.TrimSpace(in)) {
	case "M", "MALE", "MASCULINO":
		return SexMale, nil
	case "F", "FEMALE", "FEMININO":
		return SexFemale, nil
	}
	return "", ErrInvalidSex
}

// ValidateVitals checks measured values. Zero values mean "not measured".
func ValidateVitals(v Vitals) error {
	if v.OxygenSaturation != 0 && (v.OxygenSaturation < MinOxygen || v.OxygenSaturation > MaxOxygen) {
		return fmt.Errorf("%w: oxygen saturation %d outside [%d,%d]", ErrInvalidVitals, v.OxygenSaturation, MinOxygen, MaxOxygen)
	}
	if v.BloodPressure != "" {
		sys, dia, ok := strings.Cut(v.BloodPressure, "/")
		if !ok || !allDigits(sys) || !allDigits(dia) {
			return fmt.Errorf("%w: blood pressure %q is not SYS/DIA", ErrInvalidVitals, v.BloodPressure)
		}
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
