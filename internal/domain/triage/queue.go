// Package triage orders patients for service.
//
// The queue keeps two lanes. Critical patients go to a FIFO lane that is
// always served first. Everyone else waits in a standard lane ordered by
// Score, highest first. Standard-lane scores depend on elapsed time, so the
// lane is re-scored on every insertion and again on every read; Dequeue
// always reflects the wait times at the moment it is called.
//
// Ties in the standard lane go to the earlier arrival, then to the earlier
// enqueue.
package triage

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/ehr/triage/internal/domain/patient"
)

type Lane string

const (
	LaneCritical Lane = "critical"
	LaneStandard Lane = "standard"
)

type Option func(*Queue)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

type entry struct {
	patient *patient.Patient
	seq     uint64
	score   float64
}

// Queue is safe for concurrent use. Both lanes sit behind a single lock so
// that routing and re-sorting happen as one step.
type Queue struct {
	mu       sync.Mutex
	now      func() time.Time
	seq      uint64
	critical []entry
	standard []entry
}

func NewQueue(opts ...Option) *Queue {
	q := &Queue{now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue routes p to its lane. Nil patients are ignored. The queue does
// not detect duplicates; callers enforce identity uniqueness.
func (q *Queue) Enqueue(p *patient.Patient) {
	if p == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	e := entry{patient: p, seq: q.seq}
	if p.IsCritical() {
		q.critical = append(q.critical, e)
		return
	}
	q.standard = append(q.standard, e)
	q.rescore(q.now())
}

// Dequeue removes and returns the next patient to serve: the oldest
// critical patient if any, otherwise the highest-scoring standard patient
// as of now. It returns false when the queue is empty.
func (q *Queue) Dequeue() (*patient.Patient, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.critical) > 0 {
		p := q.critical[0].patient
		q.critical[0] = entry{}
		q.critical = q.critical[1:]
		return p, true
	}
	if len(q.standard) > 0 {
		q.rescore(q.now())
		p := q.standard[0].patient
		q.standard[0] = entry{}
		q.standard = q.standard[1:]
		return p, true
	}
	return nil, false
}

// Peek returns the patient Dequeue would return, without removing it.
func (q *Queue) Peek() (*patient.Patient, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.critical) > 0 {
		return q.critical[0].patient, true
	}
	if len(q.standard) > 0 {
		q.rescore(q.now())
		return q.standard[0].patient, true
	}
	return nil, false
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.critical) + len(q.standard)
}

func (q *Queue) CriticalCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.critical)
}

func (q *Queue) StandardCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.standard)
}

// rescore recomputes standard-lane scores as of now and re-sorts the lane.
// Callers hold q.mu.
func (q *Queue) rescore(now time.Time) {
	for i := range q.standard {
		q.standard[i].score = ScoreAt(q.standard[i].patient, now)
	}
	sort.SliceStable(q.standard, func(i, j int) bool {
		a, b := q.standard[i], q.standard[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.patient.ArrivalTime.Equal(b.patient.ArrivalTime) {
			return a.patient.ArrivalTime.Before(b.patient.ArrivalTime)
		}
		return a.seq < b.seq
	})
}

// Position is one row of a Board.
type Position struct {
	Patient     *patient.Patient `json:"patient"`
	Lane        Lane             `json:"lane"`
	Place       int              `json:"place"`
	WaitMinutes int              `json:"wait_minutes"`
	// Score is only meaningful in the standard lane.
	Score float64 `json:"score,omitempty"`
}

// Board is an ordered snapshot of both lanes.
type Board struct {
	TakenAt  time.Time  `json:"taken_at"`
	Critical []Position `json:"critical"`
	Standard []Position `json:"standard"`
}

func (b Board) Size() int {
	return len(b.Critical) + len(b.Standard)
}

// Next returns the head of the board in service order.
func (b Board) Next() (Position, bool) {
	if len(b.Critical) > 0 {
		return b.Critical[0], true
	}
	if len(b.Standard) > 0 {
		return b.Standard[0], true
	}
	return Position{}, false
}

// Snapshot returns both lanes in service order, re-scored as of now. The
// positions reference the queued patients; they are not copies.
func (q *Queue) Snapshot() Board {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.rescore(now)
	return Board{
		TakenAt: now,
		Critical: lo.Map(q.critical, func(e entry, i int) Position {
			return Position{Patient: e.patient, Lane: LaneCritical, Place: i + 1, WaitMinutes: e.patient.WaitMinutes(now)}
		}),
		Standard: lo.Map(q.standard, func(e entry, i int) Position {
			return Position{Patient: e.patient, Lane: LaneStandard, Place: i + 1, WaitMinutes: e.patient.WaitMinutes(now), Score: e.score}
		}),
	}
}
