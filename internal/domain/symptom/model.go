package symptom

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SeverityLevel is the clinical urgency of a symptom. Lower rank is more
// urgent: Critical(1) > High(2) > Medium(3) > Low(4).
type SeverityLevel int

const (
	Critical SeverityLevel = 1
	High     SeverityLevel = 2
	Medium   SeverityLevel = 3
	Low      SeverityLevel = 4
)

// Levels returns the four severity levels in urgency order.
func Levels() []SeverityLevel {
	return []SeverityLevel{Critical, High, Medium, Low}
}

// Rank is the comparison value of the level (1 = most urgent).
func (s SeverityLevel) Rank() int {
	return int(s)
}

// MoreUrgentThan reports whether s ranks ahead of other.
func (s SeverityLevel) MoreUrgentThan(other SeverityLevel) bool {
	return s.Rank() < other.Rank()
}

func (s SeverityLevel) Valid() bool {
	return s >= Critical && s <= Low
}

func (s SeverityLevel) String() string {
	switch s {
	case Critical:
		return "CRITICAL"
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	case Low:
		return "LOW"
	default:
		return fmt.Sprintf("SeverityLevel(%d)", int(s))
	}
}

// CatalogName is the spelling used in the symptom source's urgencia column.
func (s SeverityLevel) CatalogName() string {
	switch s {
	case Critical:
		return "CRITICO"
	case High:
		return "ALTO"
	case Medium:
		return "MEDIO"
	case Low:
		return "BAIXO"
	default:
		return ""
	}
}

// ParseSeverity maps a catalog spelling (CRITICO, ALTO, MEDIO, BAIXO) to its
// level. Matching is exact after trimming surrounding whitespace.
func ParseSeverity(name string) (SeverityLevel, error) {
	switch strings.TrimSpace(name) {
	case "CRITICO":
		return Critical, nil
	case "ALTO":
		return High, nil
	case "MEDIO":
		return Medium, nil
	case "BAIXO":
		return Low, nil
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

func (s SeverityLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SeverityLevel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, lvl := range Levels() {
		if lvl.String() == name || lvl.CatalogName() == name {
			*s = lvl
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", name)
}

// Record is one catalog entry. Records are values and never mutated once
// loaded.
type Record struct {
	Name        string        `json:"name"`
	Severity    SeverityLevel `json:"severity"`
	Description string        `json:"description"`
}
