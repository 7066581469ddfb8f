package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/triage/internal/domain/symptom"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func (s Sex) Label() string {
	switch s {
	case SexMale:
		return "Male"
	case SexFemale:
		return "Female"
	default:
		return string(s)
	}
}

// AttendanceStatus tracks a patient through the desk:
// Waiting -> Triage -> [Observation ->] InService -> Finished. Only a patient
// in service can be finished.
type AttendanceStatus string

const (
	StatusWaiting     AttendanceStatus = "waiting"
	StatusTriage      AttendanceStatus = "triage"
	StatusObservation AttendanceStatus = "observation"
	StatusInService   AttendanceStatus = "in-service"
	StatusFinished    AttendanceStatus = "finished"
)

var transitions = map[AttendanceStatus][]AttendanceStatus{
	StatusWaiting:     {StatusTriage},
	StatusTriage:      {StatusObservation, StatusInService},
	StatusObservation: {StatusInService},
	StatusInService:   {StatusFinished},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s AttendanceStatus) CanTransitionTo(next AttendanceStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Vitals are the measurements taken at the desk.
type Vitals struct {
	BloodPressure    string `json:"blood_pressure"`
	OxygenSaturation int    `json:"oxygen_saturation"`
}

// StatusChange is one entry of a patient's status history.
type StatusChange struct {
	From      AttendanceStatus `json:"from,omitempty"`
	To        AttendanceStatus `json:"to"`
	ChangedAt time.Time        `json:"changed_at"`
	ChangedBy uuid.UUID        `json:"changed_by"`
	StaffName string           `json:"staff_name"`
	Note      string           `json:"note,omitempty"`
}

// Patient is a registered person waiting for or receiving care. CPF is the
// identity key. ArrivalTime, Severity and Complaint are fixed at creation;
// Status only moves through the workflow functions in this package.
type Patient struct {
	ID          uuid.UUID             `json:"id"`
	CPF         string                `json:"cpf"`
	Name        string                `json:"name"`
	Age         int                   `json:"age"`
	Sex         Sex                   `json:"sex"`
	SymptomName string                `json:"symptom"`
	Severity    symptom.SeverityLevel `json:"severity"`
	Complaint   string                `json:"complaint"`
	Status      AttendanceStatus      `json:"status"`
	ArrivalTime time.Time             `json:"arrival_time"`
	Vitals      Vitals                `json:"vitals"`
	History     []StatusChange        `json:"history,omitempty"`
}

// IsCritical reports whether the patient belongs to the immediate-service
// tier.
func (p *Patient) IsCritical() bool {
	return p.Severity == symptom.Critical
}

// WaitMinutes is the whole number of minutes elapsed between arrival and
// now, floored, never negative.
func (p *Patient) WaitMinutes(now time.Time) int {
	d := now.Sub(p.ArrivalTime)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// NewPatient carries the registration form fields.
type NewPatient struct {
	Name    string
	CPF     string
	Age     int
	Sex     Sex
	Symptom string
	Vitals  Vitals
}

// New validates the form and builds a Waiting patient. Severity and
// complaint must already be resolved by the caller.
func New(in NewPatient, severity symptom.SeverityLevel, complaint string, arrival time.Time) (*Patient, error) {
	name, err := ValidateName(in.Name)
	if err != nil {
		return nil, err
	}
	cpf, err := NormalizeCPF(in.CPF)
	if err != nil {
		return nil, err
	}
	if err := ValidateAge(in.Age); err != nil {
		return nil, err
	}
	if in.Sex != SexMale && in.Sex != SexFemale {
		return nil, ErrInvalidSex
	}
	if !severity.Valid() {
		return nil, ErrInvalidSeverity
	}
	if err := ValidateVitals(in.Vitals); err != nil {
		return nil, err
	}
	return &Patient{
		ID:          uuid.New(),
		CPF:         cpf,
		Name:        name,
		Age:         in.Age,
		Sex:         in.Sex,
		SymptomName: in.Symptom,
		Severity:    severity,
		Complaint:   complaint,
		Status:      StatusWaiting,
		ArrivalTime: arrival,
		Vitals:      in.Vitals,
	}, nil
}
