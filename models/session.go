package models

import (
	"time"
)

// Session is one timed observation round. Ledger order is a stable sort by
// (created_at, id); sessions are never physically reordered.
type Session struct {
	ID        int64     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Discarded bool      `db:"discarded" json:"discarded"`
}

// SessionDetail combines a session with its records and draw state
type SessionDetail struct {
	Session      *Session       `json:"session"`
	Observations []*Observation `json:"observations"`
	DrawState    *DrawState     `json:"draw_state"`
}

// CategoryCounts tallies the session's observations by category
func (sd *SessionDetail) CategoryCounts() map[Category]int {
	counts := make(map[Category]int)
	for _, obs := range sd.Observations {
		counts[obs.Category]++
	}
	return counts
}
