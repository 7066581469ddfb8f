package console

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"

	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/symptom"
	"github.com/ehr/triage/internal/domain/triage"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// OrderedRecords flattens a grouped catalog into menu order: most urgent
// level first, load order within a level.
func OrderedRecords(grouped map[symptom.SeverityLevel][]symptom.Record) []symptom.Record {
	return lo.FlatMap(symptom.Levels(), func(lvl symptom.SeverityLevel, _ int) []symptom.Record {
		return grouped[lvl]
	})
}

// WriteCatalog prints the catalog grouped by severity with 1-based option
// numbers, matching the order of OrderedRecords.
func WriteCatalog(w io.Writer, grouped map[symptom.SeverityLevel][]symptom.Record) error {
	tw := newTable(w)
	n := 0
	for _, lvl := range symptom.Levels() {
		if len(grouped[lvl]) == 0 {
			continue
		}
		fmt.Fprintf(tw, "--- %s ---\t\t\n", lvl)
		for _, rec := range grouped[lvl] {
			n++
			fmt.Fprintf(tw, "%d.\t%s\t%s\n", n, rec.Name, rec.Description)
		}
	}
	if n == 0 {
		fmt.Fprintln(tw, "Symptom catalog is empty.")
	}
	return tw.Flush()
}

// WritePatients prints a registry listing. first is the 1-based number of
// the first row.
func WritePatients(w io.Writer, patients []*patient.Patient, first int) error {
	if len(patients) == 0 {
		_, err := fmt.Fprintln(w, "No patients registered yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tNAME\tCPF\tAGE\tSEX\tBP\tO2\tCOMPLAINT\tSEVERITY\tSTATUS")
	for i, p := range patients {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			first+i, p.Name, p.CPF, p.Age, p.Sex.Label(),
			orDash(p.Vitals.BloodPressure), oxygen(p.Vitals.OxygenSaturation),
			orDash(complaint(p)), p.Severity, p.Status)
	}
	return tw.Flush()
}

// WriteBoard prints both queue lanes in service order.
func WriteBoard(w io.Writer, b triage.Board) error {
	if b.Size() == 0 {
		_, err := fmt.Fprintln(w, "No patients in the queue.")
		return err
	}
	fmt.Fprintf(w, "Total: %d patients | Critical: %d | Standard: %d\n\n", b.Size(), len(b.Critical), len(b.Standard))

	tw := newTable(w)
	if len(b.Critical) > 0 {
		fmt.Fprintln(tw, "CRITICAL LANE (immediate service)\t\t\t\t")
		for _, pos := range b.Critical {
			fmt.Fprintf(tw, "  %d.\t%s\t%s\twait %dmin\t\n", pos.Place, pos.Patient.Name, pos.Patient.Severity, pos.WaitMinutes)
		}
		fmt.Fprintln(tw, "\t\t\t\t")
	}
	if len(b.Standard) > 0 {
		fmt.Fprintln(tw, "STANDARD LANE\t\t\t\t")
		for _, pos := range b.Standard {
			fmt.Fprintf(tw, "  %d.\t%s\t%s\twait %dmin\tscore %.1f\n", pos.Place, pos.Patient.Name, pos.Patient.Severity, pos.WaitMinutes, pos.Score)
		}
	}
	return tw.Flush()
}

// WritePatient prints one patient's record and status history.
func WritePatient(w io.Writer, p *patient.Patient, now time.Time) error {
	tw := newTable(w)
	rows := [][2]string{
		{"Name", p.Name},
		{"CPF", p.CPF},
		{"Age", fmt.Sprint(p.Age)},
		{"Sex", p.Sex.Label()},
		{"Symptom", orDash(p.SymptomName)},
		{"Complaint", orDash(complaint(p))},
		{"Severity", p.Severity.String()},
		{"Status", string(p.Status)},
		{"Blood pressure", orDash(p.Vitals.BloodPressure)},
		{"O2 saturation", oxygen(p.Vitals.OxygenSaturation)},
		{"Arrival", p.ArrivalTime.Format("2006-01-02 15:04")},
		{"Waiting", fmt.Sprintf("%d min", p.WaitMinutes(now))},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	if len(p.History) > 0 {
		fmt.Fprintln(tw, "\t")
		fmt.Fprintln(tw, "History:\t")
		for _, h := range p.History {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", h.ChangedAt.Format("15:04"), h.To, h.Note)
		}
	}
	return tw.Flush()
}

func complaint(p *patient.Patient) string {
	if p.Complaint != "" {
		return p.Complaint
	}
	return p.SymptomName
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oxygen(v int) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", v)
}
