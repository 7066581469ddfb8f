// Package symptom holds the symptom catalog used to classify patients at
// intake. A Catalog maps a symptom name to a severity level and a
// description and is loaded from a tabular source.
package symptom

import (
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Catalog is the symptom lookup table. The zero value is not usable; build
// one with NewCatalog.
//
// Query methods load the default source on first use if no load has been
// attempted yet. That lazy load happens at most once; its failure is
// returned to the caller that triggered it and the catalog then answers
// from an empty table. Load may always be called again explicitly.
//
// An attempted load counts even when it leaves the table empty: a source
// with only a header row, or a failed one, never triggers another lazy load.
type Catalog struct {
	mu            sync.RWMutex
	defaultSource Source
	attempted     bool
	records       []Record
	index         map[string]int

	lazy    sync.Once
	lazyErr error
}

// NewCatalog returns an empty catalog. defaultSource may be nil, in which
// case queries never trigger a load.
func NewCatalog(defaultSource Source) *Catalog {
	return &Catalog{
		defaultSource: defaultSource,
		index:         make(map[string]int),
	}
}

// NewCatalogFromRecords builds an already-loaded catalog.
func NewCatalogFromRecords(records []Record) *Catalog {
	c := NewCatalog(nil)
	c.attempted = true
	for _, r := range records {
		if i, ok := c.index[r.Name]; ok {
			c.records[i] = r
			continue
		}
		c.index[r.Name] = len(c.records)
		c.records = append(c.records, r)
	}
	return c
}

// Load replaces the table with the rows of src. On error the previous table
// is kept as it was.
func (c *Catalog) Load(src Source) error {
	records, index, err := readRecords(src)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempted = true
	if err != nil {
		return err
	}
	c.records = records
	c.index = index
	return nil
}

func (c *Catalog) ensureLoaded() error {
	c.mu.RLock()
	done := c.attempted || c.defaultSource == nil
	c.mu.RUnlock()
	if done {
		return nil
	}
	c.lazy.Do(func() {
		c.mu.RLock()
		already := c.attempted
		c.mu.RUnlock()
		if !already {
			c.lazyErr = c.Load(c.defaultSource)
		}
	})
	return c.lazyErr
}

// Classify returns the severity stored for name, matched exactly. Unknown
// names classify as Medium. The error is set only when the lazy load fails;
// the level is Medium in that case.
func (c *Catalog) Classify(name string) (SeverityLevel, error) {
	err := c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.index[name]; ok {
		return c.records[i].Severity, err
	}
	return Medium, err
}

// DescriptionFor returns the stored description for name, or "" if the
// name is unknown.
func (c *Catalog) DescriptionFor(name string) (string, error) {
	err := c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.index[name]; ok {
		return c.records[i].Description, err
	}
	return "", err
}

// Lookup returns the record stored under the exact name.
func (c *Catalog) Lookup(name string) (Record, bool, error) {
	err := c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.index[name]; ok {
		return c.records[i], true, err
	}
	return Record{}, false, err
}

// Resolve maps free-form operator input to a catalog record, ignoring case
// and surrounding whitespace. An exact match wins over a case-folded one.
func (c *Catalog) Resolve(input string) (Record, bool, error) {
	err := c.ensureLoaded()
	input = strings.TrimSpace(input)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.index[input]; ok {
		return c.records[i], true, err
	}
	rec, ok := lo.Find(c.records, func(r Record) bool {
		return strings.EqualFold(r.Name, input)
	})
	return rec, ok, err
}

// Records returns a copy of the table in load order.
func (c *Catalog) Records() ([]Record, error) {
	err := c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out, err
}

// GroupedBySeverity returns the records bucketed by level. Every level has a
// key; records keep load order inside their bucket.
func (c *Catalog) GroupedBySeverity() (map[SeverityLevel][]Record, error) {
	records, err := c.Records()
	grouped := lo.GroupBy(records, func(r Record) SeverityLevel {
		return r.Severity
	})
	for _, lvl := range Levels() {
		if _, ok := grouped[lvl]; !ok {
			grouped[lvl] = []Record{}
		}
	}
	return grouped, err
}

// Len reports the number of loaded records. It does not trigger a load.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
