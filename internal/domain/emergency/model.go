package emergency

import (
	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/triage"
)

// Intake is the registration form filled at the front desk.
type Intake struct {
	Name    string         `json:"name"`
	CPF     string         `json:"cpf"`
	Age     int            `json:"age"`
	Sex     patient.Sex    `json:"sex"`
	Symptom string         `json:"symptom"`
	Vitals  patient.Vitals `json:"vitals"`
}

// Admission is the result of a successful Admit.
type Admission struct {
	Patient *patient.Patient      `json:"patient"`
	Outcome patient.TriageOutcome `json:"-"`
	Lane    triage.Lane           `json:"lane"`
	// KnownSymptom is false when the symptom was not found in the catalog
	// and the patient was classified with the default level.
	KnownSymptom bool `json:"known_symptom"`
	// CatalogWarning holds the catalog load failure observed while
	// classifying this patient, if any.
	CatalogWarning error `json:"-"`
}

// QueueSizes is a point-in-time count of the waiting patients.
type QueueSizes struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	Standard int `json:"standard"`
}
