package emergency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/symptom"
	"github.com/ehr/triage/internal/domain/triage"
)

// -- Mocks --

type mockRepo struct {
	PatientRepository
	updateErr error
	updates   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{PatientRepository: NewMemoryRepository()}
}

func (m *mockRepo) Update(ctx context.Context, p *patient.Patient) error {
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	return m.PatientRepository.Update(ctx, p)
}

type fixedVitals struct{ v patient.Vitals }

func (f fixedVitals) Vitals() patient.Vitals { return f.v }

type failingSource struct{}

func (failingSource) Name() string { return "missing.csv" }

func (failingSource) Open() (io.ReadCloser, error) {
	return nil, fmt.Errorf("%w: open missing.csv", symptom.ErrSourceUnavailable)
}

// -- Helpers --

var start = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type testDesk struct {
	svc   *Service
	repo  *mockRepo
	queue *triage.Queue
	now   *time.Time
}

func testCatalog() *symptom.Catalog {
	return symptom.NewCatalogFromRecords([]symptom.Record{
		{Name: "Chest Pain", Severity: symptom.Critical, Description: "Dor toracica"},
		{Name: "Fracture", Severity: symptom.High, Description: "Fratura"},
		{Name: "Headache", Severity: symptom.Medium, Description: "Cefaleia"},
		{Name: "Cough", Severity: symptom.Low, Description: "Tosse"},
	})
}

func newTestDesk(t *testing.T, catalog *symptom.Catalog) *testDesk {
	t.Helper()
	now := start
	clock := func() time.Time { return now }
	repo := newMockRepo()
	queue := triage.NewQueue(triage.WithClock(clock))
	svc := NewService(catalog, repo, queue, fixedVitals{patient.Vitals{BloodPressure: "120/80", OxygenSaturation: 98}},
		patient.NewStaff("Reception", "111.111.111-11", patient.RoleFrontDesk),
		patient.NewStaff("Nurse Joy", "222.222.222-22", patient.RoleNurse),
		zerolog.Nop(), WithClock(clock))
	return &testDesk{svc: svc, repo: repo, queue: queue, now: &now}
}

func (d *testDesk) advance(dur time.Duration) { *d.now = d.now.Add(dur) }

func intake(name, cpf, sym string) Intake {
	return Intake{Name: name, CPF: cpf, Age: 40, Sex: patient.SexFemale, Symptom: sym}
}

var doctor = patient.NewStaff("Dr. House", "333.333.333-33", patient.RolePhysician)

// -- Admit --

func TestService_AdmitCritical(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	adm, err := d.svc.Admit(context.Background(), intake("Maria Silva", "12345678909", "Chest Pain"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := adm.Patient
	if p.CPF != "123.456.789-09" {
		t.Errorf("expected canonical CPF, got %s", p.CPF)
	}
	if p.Severity != symptom.Critical || adm.Lane != triage.LaneCritical {
		t.Errorf("expected critical lane, got %s / %s", p.Severity, adm.Lane)
	}
	if p.Status != patient.StatusObservation {
		t.Errorf("expected critical patient under observation, got %s", p.Status)
	}
	if adm.Outcome.Label != "CRITICAL - observation" {
		t.Errorf("unexpected outcome label %q", adm.Outcome.Label)
	}
	if p.Complaint != "Dor toracica" {
		t.Errorf("expected complaint from catalog, got %q", p.Complaint)
	}
	if !p.ArrivalTime.Equal(start) {
		t.Errorf("expected arrival %v, got %v", start, p.ArrivalTime)
	}
	if len(p.History) != 3 {
		t.Errorf("expected register, triage and observation entries, got %d", len(p.History))
	}
	if d.queue.CriticalCount() != 1 {
		t.Errorf("expected one critical patient queued, got %d", d.queue.CriticalCount())
	}
}

func TestService_AdmitResolvesCaseInsensitiveSymptom(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	adm, err := d.svc.Admit(context.Background(), intake("Joao Souza", "98765432100", "  headache "))
	if err != nil {
		t.Fatal(err)
	}
	if adm.Patient.SymptomName != "Headache" || adm.Patient.Severity != symptom.Medium || !adm.KnownSymptom {
		t.Errorf("expected canonical Headache/MEDIUM, got %s/%s", adm.Patient.SymptomName, adm.Patient.Severity)
	}
	if adm.Patient.Status != patient.StatusTriage {
		t.Errorf("expected triage status, got %s", adm.Patient.Status)
	}
}

func TestService_AdmitUnknownSymptomIsMedium(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	adm, err := d.svc.Admit(context.Background(), intake("Carla Dias", "11122233344", "totally-unknown-symptom"))
	if err != nil {
		t.Fatal(err)
	}
	if adm.Patient.Severity != symptom.Medium {
		t.Errorf("expected MEDIUM, got %s", adm.Patient.Severity)
	}
	if adm.KnownSymptom {
		t.Error("expected unknown symptom to be flagged")
	}
	if adm.Lane != triage.LaneStandard {
		t.Errorf("expected standard lane, got %s", adm.Lane)
	}
}

func TestService_AdmitFillsVitals(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	adm, _ := d.svc.Admit(context.Background(), intake("Carla Dias", "11122233344", "Cough"))
	if adm.Patient.Vitals.BloodPressure != "120/80" {
		t.Errorf("expected generated vitals, got %+v", adm.Patient.Vitals)
	}

	in := intake("Davi Lima", "55566677788", "Cough")
	in.Vitals = patient.Vitals{BloodPressure: "140/90", OxygenSaturation: 96}
	adm, _ = d.svc.Admit(context.Background(), in)
	if adm.Patient.Vitals.BloodPressure != "140/90" {
		t.Errorf("expected measured vitals kept, got %+v", adm.Patient.Vitals)
	}
}

func TestService_AdmitDuplicateCPF(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx := context.Background()
	if _, err := d.svc.Admit(ctx, intake("Maria Silva", "123.456.789-09", "Cough")); err != nil {
		t.Fatal(err)
	}
	_, err := d.svc.Admit(ctx, intake("Outra Pessoa", "12345678909", "Chest Pain"))
	if !errors.Is(err, ErrDuplicateCPF) {
		t.Fatalf("expected ErrDuplicateCPF, got %v", err)
	}
	if d.queue.Size() != 1 {
		t.Errorf("duplicate must not be enqueued, queue size %d", d.queue.Size())
	}
	if !d.svc.Registered(ctx, "123.456.789-09") {
		t.Error("expected CPF to be registered")
	}
}

func TestService_AdmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Intake)
		want   error
	}{
		{"short name", func(in *Intake) { in.Name = "Al" }, patient.ErrInvalidName},
		{"bad cpf", func(in *Intake) { in.CPF = "123" }, patient.ErrInvalidCPF},
		{"age zero", func(in *Intake) { in.Age = 0 }, patient.ErrInvalidAge},
		{"age too high", func(in *Intake) { in.Age = 151 }, patient.ErrInvalidAge},
		{"sex", func(in *Intake) { in.Sex = "x" }, patient.ErrInvalidSex},
		{"oxygen", func(in *Intake) { in.Vitals = patient.Vitals{OxygenSaturation: 80} }, patient.ErrInvalidVitals},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDesk(t, testCatalog())
			in := intake("Maria Silva", "12345678909", "Cough")
			tt.mutate(&in)
			_, err := d.svc.Admit(context.Background(), in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if d.queue.Size() != 0 {
				t.Errorf("invalid intake must not be enqueued")
			}
		})
	}
}

func TestService_AdmitWithUnavailableCatalog(t *testing.T) {
	d := newTestDesk(t, symptom.NewCatalog(failingSource{}))
	ctx := context.Background()

	adm, err := d.svc.Admit(ctx, intake("Maria Silva", "12345678909", "Chest Pain"))
	if err != nil {
		t.Fatalf("admission must proceed without a catalog, got %v", err)
	}
	if !errors.Is(adm.CatalogWarning, symptom.ErrSourceUnavailable) {
		t.Errorf("expected catalog warning, got %v", adm.CatalogWarning)
	}
	if adm.Patient.Severity != symptom.Medium {
		t.Errorf("expected MEDIUM fallback, got %s", adm.Patient.Severity)
	}

	adm, err = d.svc.Admit(ctx, intake("Joao Souza", "98765432100", "Chest Pain"))
	if err != nil {
		t.Fatal(err)
	}
	if adm.CatalogWarning != nil {
		t.Errorf("failure must be reported once, got %v", adm.CatalogWarning)
	}
}

func TestService_AdmitCanceledContext(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.svc.Admit(ctx, intake("Maria Silva", "12345678909", "Cough")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// -- CallNext / Finish --

func TestService_CallNextOrder(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx := context.Background()
	d.svc.Admit(ctx, intake("Tosse Antiga", "00000000001", "Cough"))
	d.advance(30 * time.Minute)
	d.svc.Admit(ctx, intake("Dor Cabeca", "00000000002", "Headache"))
	d.advance(time.Minute)
	d.svc.Admit(ctx, intake("Peito Agora", "00000000003", "Chest Pain"))
	d.advance(time.Minute)

	var got []string
	for {
		p, ok, err := d.svc.CallNext(ctx, doctor)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		if p.Status != patient.StatusInService {
			t.Errorf("expected %s in service, got %s", p.Name, p.Status)
		}
		got = append(got, p.Name)
	}
	want := []string{"Peito Agora", "Dor Cabeca", "Tosse Antiga"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestService_CallNextEmpty(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	p, ok, err := d.svc.CallNext(context.Background(), doctor)
	if err != nil || ok || p != nil {
		t.Errorf("expected empty result, got %v %v %v", p, ok, err)
	}
}

func TestService_CallNextUpdateFailure(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx := context.Background()
	d.svc.Admit(ctx, intake("Maria Silva", "12345678909", "Cough"))
	d.repo.updateErr = errors.New("disk full")

	p, ok, err := d.svc.CallNext(ctx, doctor)
	if err == nil || !ok || p == nil {
		t.Fatalf("expected the dequeued patient with an error, got %v %v %v", p, ok, err)
	}
}

func TestService_Finish(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx := context.Background()
	d.svc.Admit(ctx, intake("Maria Silva", "12345678909", "Cough"))

	if _, err := d.svc.Finish(ctx, "123.456.789-09", doctor); !errors.Is(err, patient.ErrInvalidTransition) {
		t.Fatalf("finishing a queued patient must fail, got %v", err)
	}

	d.svc.CallNext(ctx, doctor)
	d.advance(15 * time.Minute)
	p, err := d.svc.Finish(ctx, "12345678909", doctor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != patient.StatusFinished {
		t.Errorf("expected finished, got %s", p.Status)
	}
	last := p.History[len(p.History)-1]
	if last.ChangedBy != doctor.ID || !last.ChangedAt.Equal(*d.now) {
		t.Errorf("unexpected history entry %+v", last)
	}
}

func TestService_FinishCriticalUnderObservation(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx := context.Background()
	d.svc.Admit(ctx, intake("Maria Silva", "12345678909", "Chest Pain"))
	d.svc.CallNext(ctx, doctor)
	if _, err := d.svc.Finish(ctx, "12345678909", doctor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_FinishCriticalNotYetCalled(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx := context.Background()
	if _, err := d.svc.Admit(ctx, intake("Maria Silva", "12345678909", "Chest Pain")); err != nil {
		t.Fatal(err)
	}

	if _, err := d.svc.Finish(ctx, "12345678909", doctor); !errors.Is(err, patient.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if d.queue.Size() != 1 {
		t.Errorf("expected patient to stay queued, got size %d", d.queue.Size())
	}
	p, err := d.svc.Find(ctx, "12345678909")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != patient.StatusObservation {
		t.Errorf("expected status to stay observation, got %s", p.Status)
	}

	called, ok, err := d.svc.CallNext(ctx, doctor)
	if err != nil || !ok {
		t.Fatalf("expected call to succeed, got ok=%v err=%v", ok, err)
	}
	if called.Status != patient.StatusInService {
		t.Errorf("expected in-service, got %s", called.Status)
	}
}

func TestService_FinishUnknown(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	if _, err := d.svc.Finish(context.Background(), "99999999999", doctor); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := d.svc.Finish(context.Background(), "abc", doctor); !errors.Is(err, patient.ErrInvalidCPF) {
		t.Errorf("expected ErrInvalidCPF, got %v", err)
	}
}

// -- Read side --

func TestService_PatientsAndFind(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if _, err := d.svc.Admit(ctx, intake(fmt.Sprintf("Paciente %d", i), fmt.Sprintf("0000000000%d", i), "Cough")); err != nil {
			t.Fatal(err)
		}
	}
	list, total, err := d.svc.Patients(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(list) != 3 || list[0].Name != "Paciente 1" {
		t.Errorf("unexpected listing %v (total %d)", list, total)
	}
	p, err := d.svc.Find(ctx, "000.000.000-02")
	if err != nil || p.Name != "Paciente 2" {
		t.Errorf("expected Paciente 2, got %v %v", p, err)
	}
}

func TestService_QueueSizesAndBoard(t *testing.T) {
	d := newTestDesk(t, testCatalog())
	ctx := context.Background()
	d.svc.Admit(ctx, intake("Maria Silva", "00000000001", "Chest Pain"))
	d.svc.Admit(ctx, intake("Joao Souza", "00000000002", "Fracture"))
	d.svc.Admit(ctx, intake("Carla Dias", "00000000003", "Cough"))
	d.advance(20 * time.Minute)

	sizes := d.svc.QueueSizes()
	if sizes != (QueueSizes{Total: 3, Critical: 1, Standard: 2}) {
		t.Errorf("unexpected sizes %+v", sizes)
	}
	board := d.svc.Board()
	if board.Standard[0].Patient.Name != "Joao Souza" || board.Standard[0].Score != 22 {
		t.Errorf("unexpected standard head %+v", board.Standard[0])
	}
}
