package symptom

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultSourcePath is the file the desk loads symptoms from when nothing
// else is configured.
const DefaultSourcePath = "sintomas.csv"

// ErrSourceUnavailable is returned when a symptom source cannot be opened or
// read. It is recoverable: callers may continue with an empty catalog.
var ErrSourceUnavailable = errors.New("symptom source unavailable")

// Column names expected in the source header. The name column is accepted
// under either spelling.
const (
	columnSymptom     = "symptom"
	columnSintoma     = "sintoma"
	columnUrgencia    = "urgencia"
	columnDescription = "descricao"
)

// ParseError describes a malformed source. A load that hits a ParseError
// commits nothing.
type ParseError struct {
	Source string
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Value != "" {
		fmt.Fprintf(&b, " (%q)", e.Value)
	}
	return b.String()
}

// Source yields the tabular symptom data.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	path string
}

// FileSource reads symptoms from a CSV file on disk.
func FileSource(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Name() string { return s.path }

func (s fileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return f, nil
}

type readerSource struct {
	name string
	r    io.Reader
}

// ReaderSource reads symptoms from r. The reader is consumed by the first
// load that uses it.
func ReaderSource(name string, r io.Reader) Source {
	return readerSource{name: name, r: r}
}

func (s readerSource) Name() string { return s.name }

func (s readerSource) Open() (io.ReadCloser, error) {
	if s.r == nil {
		return nil, fmt.Errorf("%w: %s: no reader", ErrSourceUnavailable, s.name)
	}
	return io.NopCloser(s.r), nil
}

// readRecords parses every row of src. Repeated names keep the position of
// their first row and the values of their last.
func readRecords(src Source) ([]Record, map[string]int, error) {
	if src == nil {
		return nil, nil, fmt.Errorf("%w: no source configured", ErrSourceUnavailable)
	}
	rc, err := src.Open()
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, &ParseError{Source: src.Name(), Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, nil, readError(src, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	nameCol, ok := cols[columnSymptom]
	if !ok {
		nameCol, ok = cols[columnSintoma]
	}
	if !ok {
		return nil, nil, &ParseError{Source: src.Name(), Line: 1, Column: columnSymptom, Reason: "missing column"}
	}
	sevCol, ok := cols[columnUrgencia]
	if !ok {
		return nil, nil, &ParseError{Source: src.Name(), Line: 1, Column: columnUrgencia, Reason: "missing column"}
	}
	descCol, ok := cols[columnDescription]
	if !ok {
		return nil, nil, &ParseError{Source: src.Name(), Line: 1, Column: columnDescription, Reason: "missing column"}
	}
	width := max(nameCol, sevCol, descCol) + 1

	var records []Record
	index := make(map[string]int)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, readError(src, err)
		}
		line, _ := r.FieldPos(0)
		if len(row) < width {
			return nil, nil, &ParseError{Source: src.Name(), Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", width, len(row))}
		}

		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			return nil, nil, &ParseError{Source: src.Name(), Line: line, Column: columnSymptom, Reason: "empty symptom name"}
		}
		sev, err := ParseSeverity(row[sevCol])
		if err != nil {
			return nil, nil, &ParseError{
				Source: src.Name(),
				Line:   line,
				Column: columnUrgencia,
				Value:  strings.TrimSpace(row[sevCol]),
				Reason: "unrecognized severity",
			}
		}
		rec := Record{Name: name, Severity: sev, Description: strings.TrimSpace(row[descCol])}
		if i, seen := index[name]; seen {
			records[i] = rec
			continue
		}
		index[name] = len(records)
		records = append(records, rec)
	}
	return records, index, nil
}

func readError(src Source, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Source: src.Name(), Line: csvErr.Line, Reason: csvErr.Err.Error()}
	}
	return fmt.Errorf("%w: read %s: %w", ErrSourceUnavailable, src.Name(), err)
}
