package triage

import (
	"time"

	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/symptom"
)

const (
	// SeverityStep is the score gap between adjacent severity levels.
	SeverityStep = 10
	// WaitBonusMinutes is how long a patient waits to earn one bonus point.
	WaitBonusMinutes = 10
	// MaxWaitBonus caps the wait bonus. It stays below SeverityStep so that
	// waiting never lifts a patient above a more severe one.
	MaxWaitBonus = 5
)

// Score is the standard-lane priority: (4 - rank) * 10 + min(wait/10, 5).
func Score(sev symptom.SeverityLevel, waitMinutes int) float64 {
	bonus := float64(waitMinutes) / WaitBonusMinutes
	if bonus > MaxWaitBonus {
		bonus = MaxWaitBonus
	}
	if bonus < 0 {
		bonus = 0
	}
	return float64((4-sev.Rank())*SeverityStep) + bonus
}

// ScoreAt scores p as of now.
func ScoreAt(p *patient.Patient, now time.Time) float64 {
	return Score(p.Severity, p.WaitMinutes(now))
}
