// Package sandbox provides synthetic intake data for demo sessions. It
// produces reproducible patients, vitals and arrival times so a desk can be
// exercised without an operator.
package sandbox

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ehr/triage/internal/domain/emergency"
	"github.com/ehr/triage/internal/domain/patient"
)

// ---------------------------------------------------------------------------
// Pools
// ---------------------------------------------------------------------------

var (
	firstNamesMale = []string{
		"Joao", "Pedro", "Lucas", "Gabriel", "Rafael", "Mateus", "Gustavo",
		"Felipe", "Bruno", "Carlos", "Eduardo", "Rodrigo", "Thiago", "Marcelo",
		"Andre", "Daniel", "Leonardo", "Paulo", "Ricardo", "Vitor",
	}
	firstNamesFemale = []string{
		"Maria", "Ana", "Juliana", "Camila", "Fernanda", "Beatriz", "Larissa",
		"Amanda", "Patricia", "Mariana", "Aline", "Carla", "Leticia", "Gabriela",
		"Renata", "Vanessa", "Bruna", "Luana", "Helena", "Sofia",
	}
	lastNames = []string{
		"Silva", "Santos", "Oliveira", "Souza", "Rodrigues", "Ferreira",
		"Alves", "Pereira", "Lima", "Gomes", "Costa", "Ribeiro", "Martins",
		"Carvalho", "Almeida", "Lopes", "Soares", "Fernandes", "Vieira",
		"Barbosa",
	}

	// fallbackSymptoms is used when the caller has no catalog to draw from.
	fallbackSymptoms = []string{
		"Dor no peito", "Febre alta", "Dor de cabeca", "Tosse", "Tontura",
	}
)

const (
	minSystolic   = 110
	maxSystolic   = 160
	minDiastolic  = 70
	maxDiastolic  = 100
	maxDemoAge    = 95
	maxArrivalGap = 15 // minutes
)

// ---------------------------------------------------------------------------
// Generator
// ---------------------------------------------------------------------------

// Generator produces deterministic synthetic intake forms.
type Generator struct {
	rng     *rand.Rand
	usedCPF map[string]struct{}
}

// NewGenerator returns a generator seeded for reproducibility. If seed is 0
// a time-based seed is chosen.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		usedCPF: make(map[string]struct{}),
	}
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// Vitals returns a plausible blood pressure and oxygen saturation.
func (g *Generator) Vitals() patient.Vitals {
	return patient.Vitals{
		BloodPressure:    fmt.Sprintf("%d/%d", g.between(minSystolic, maxSystolic), g.between(minDiastolic, maxDiastolic)),
		OxygenSaturation: g.between(patient.MinOxygen, patient.MaxOxygen),
	}
}

// CPF returns a CPF with valid check digits that this generator has not
// returned before.
func (g *Generator) CPF() string {
	for {
		var d [11]int
		for i := 0; i < 9; i++ {
			d[i] = g.rng.Intn(10)
		}
		d[9] = cpfCheckDigit(d[:9])
		d[10] = cpfCheckDigit(d[:10])
		cpf := fmt.Sprintf("%d%d%d.%d%d%d.%d%d%d-%d%d", d[0], d[1], d[2], d[3], d[4], d[5], d[6], d[7], d[8], d[9], d[10])
		if _, seen := g.usedCPF[cpf]; seen {
			continue
		}
		g.usedCPF[cpf] = struct{}{}
		return cpf
	}
}

func cpfCheckDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// Intake builds a complete registration form. The symptom is drawn from
// symptoms, or from a small built-in list when symptoms is empty.
func (g *Generator) Intake(symptoms []string) emergency.Intake {
	if len(symptoms) == 0 {
		symptoms = fallbackSymptoms
	}
	sex := patient.SexMale
	first := g.pick(firstNamesMale)
	if g.rng.Intn(2) == 0 {
		sex = patient.SexFemale
		first = g.pick(firstNamesFemale)
	}
	return emergency.Intake{
		Name:    first + " " + g.pick(lastNames),
		CPF:     g.CPF(),
		Age:     g.between(patient.MinAge, maxDemoAge),
		Sex:     sex,
		Symptom: g.pick(symptoms),
		Vitals:  g.Vitals(),
	}
}

// ArrivalGap returns the time between two consecutive demo arrivals.
func (g *Generator) ArrivalGap() time.Duration {
	return time.Duration(g.rng.Intn(maxArrivalGap+1)) * time.Minute
}
