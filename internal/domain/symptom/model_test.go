package symptom

import (
	"encoding/json"
	"testing"
)

func TestSeverityLevel_Order(t *testing.T) {
	levels := Levels()
	for i := 0; i < len(levels)-1; i++ {
		if !levels[i].MoreUrgentThan(levels[i+1]) {
			t.Errorf("expected %s to be more urgent than %s", levels[i], levels[i+1])
		}
		if levels[i+1].MoreUrgentThan(levels[i]) {
			t.Errorf("expected %s not to be more urgent than %s", levels[i+1], levels[i])
		}
	}
	if Critical.MoreUrgentThan(Critical) {
		t.Error("a level must not be more urgent than itself")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    SeverityLevel
		wantErr bool
	}{
		{"CRITICO", Critical, false},
		{"ALTO", High, false},
		{" MEDIO ", Medium, false},
		{"BAIXO", Low, false},
		{"baixo", 0, true},
		{"URGENTISSIMO", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeverity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSeverityLevel_CatalogNameRoundTrip(t *testing.T) {
	for _, lvl := range Levels() {
		got, err := ParseSeverity(lvl.CatalogName())
		if err != nil {
			t.Fatalf("ParseSeverity(%q): %v", lvl.CatalogName(), err)
		}
		if got != lvl {
			t.Errorf("round trip of %s gave %s", lvl, got)
		}
	}
}

func TestSeverityLevel_JSON(t *testing.T) {
	data, err := json.Marshal(Record{Name: "Tosse", Severity: Low, Description: "seca"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"Tosse","severity":"LOW","description":"seca"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var lvl SeverityLevel
	if err := json.Unmarshal([]byte(`"ALTO"`), &lvl); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if lvl != High {
		t.Errorf("expected High, got %s", lvl)
	}
	if err := json.Unmarshal([]byte(`"NOPE"`), &lvl); err == nil {
		t.Error("expected error for unknown severity")
	}
}
