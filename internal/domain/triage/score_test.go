package triage

import (
	"testing"
	"time"

	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/symptom"
)

func TestScore(t *testing.T) {
	tests := []struct {
		sev  symptom.SeverityLevel
		wait int
		want float64
	}{
		{symptom.High, 0, 20},
		{symptom.Medium, 0, 10},
		{symptom.Low, 0, 0},
		{symptom.Low, 9, 0.9},
		{symptom.Low, 10, 1},
		{symptom.Medium, 25, 12.5},
		{symptom.High, 50, 25},
		{symptom.High, 500, 25},
		{symptom.Low, -3, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.sev, tt.wait); got != tt.want {
			t.Errorf("Score(%s, %d) = %v, want %v", tt.sev, tt.wait, got, tt.want)
		}
	}
}

func TestScore_WaitNeverCrossesSeverity(t *testing.T) {
	pairs := [][2]symptom.SeverityLevel{
		{symptom.High, symptom.Medium},
		{symptom.Medium, symptom.Low},
		{symptom.High, symptom.Low},
	}
	for _, pair := range pairs {
		more, less := pair[0], pair[1]
		for lessWait := 0; lessWait <= 24*60; lessWait += 7 {
			if Score(less, lessWait) >= Score(more, 0) {
				t.Fatalf("%s after %d min (%v) reached fresh %s (%v)",
					less, lessWait, Score(less, lessWait), more, Score(more, 0))
			}
		}
	}
}

func TestScoreAt(t *testing.T) {
	arrival := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	p := &patient.Patient{Severity: symptom.Medium, ArrivalTime: arrival}
	if got := ScoreAt(p, arrival.Add(35*time.Minute+50*time.Second)); got != 13.5 {
		t.Errorf("expected 13.5, got %v", got)
	}
}
