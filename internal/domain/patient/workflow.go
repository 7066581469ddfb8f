package patient

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/triage/internal/domain/symptom"
)

type Role string

const (
	RoleFrontDesk Role = "front-desk"
	RoleNurse     Role = "nurse"
	RolePhysician Role = "physician"
)

// Staff identifies whoever performs a workflow step.
type Staff struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	CPF  string    `json:"cpf"`
	Role Role      `json:"role"`
}

func NewStaff(name, cpf string, role Role) Staff {
	return Staff{ID: uuid.New(), Name: name, CPF: cpf, Role: role}
}

// TriageOutcome is the result of PerformTriage.
type TriageOutcome struct {
	Severity symptom.SeverityLevel
	Label    string
	Changes  []StatusChange
}

func (o TriageOutcome) String() string {
	return o.Label
}

// RegisterPatient records the front-desk registration. The patient must be
// freshly created (Waiting, no history).
func RegisterPatient(staff Staff, p *Patient, at time.Time) (StatusChange, error) {
	if p.Status != StatusWaiting || len(p.History) > 0 {
		return StatusChange{}, fmt.Errorf("%w: %s is already registered", ErrInvalidTransition, p.CPF)
	}
	change := StatusChange{
		To:        StatusWaiting,
		ChangedAt: at,
		ChangedBy: staff.ID,
		StaffName: staff.Name,
		Note:      "registered by " + staff.Name,
	}
	p.History = append(p.History, change)
	return change, nil
}

// PerformTriage moves the patient into triage. Critical patients go on to
// observation right away; everyone else stays in triage until called.
func PerformTriage(staff Staff, p *Patient, at time.Time) (TriageOutcome, error) {
	label := p.Severity.String()
	note := fmt.Sprintf("triage by %s: %s", staff.Name, label)
	change, err := p.transition(StatusTriage, staff, at, note)
	if err != nil {
		return TriageOutcome{}, err
	}
	out := TriageOutcome{Severity: p.Severity, Label: label, Changes: []StatusChange{change}}
	if p.IsCritical() {
		out.Label = label + " - observation"
		obs, err := p.transition(StatusObservation, staff, at, "critical case held under observation")
		if err != nil {
			return TriageOutcome{}, err
		}
		out.Changes = append(out.Changes, obs)
	}
	return out, nil
}

// StartService marks the patient as being attended.
func StartService(staff Staff, p *Patient, at time.Time) (StatusChange, error) {
	return p.transition(StatusInService, staff, at, "called by "+staff.Name)
}

// Finish closes the patient's attendance.
func Finish(staff Staff, p *Patient, at time.Time) (StatusChange, error) {
	return p.transition(StatusFinished, staff, at, "finished by "+staff.Name)
}

func (p *Patient) transition(to AttendanceStatus, staff Staff, at time.Time, note string) (StatusChange, error) {
	if !p.Status.CanTransitionTo(to) {
		return StatusChange{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}
	change := StatusChange{
		From:      p.Status,
		To:        to,
		ChangedAt: at,
		ChangedBy: staff.ID,
		StaffName: staff.Name,
		Note:      note,
	}
	p.Status = to
	p.History = append(p.History, change)
	return change, nil
}
