package models

import (
	"time"
)

// DrawMethod records how a winner was chosen
type DrawMethod string

const (
	DrawMethodRandom   DrawMethod = "random"
	DrawMethodOverride DrawMethod = "override"
)

// DrawAction labels an entry in the draw history log
type DrawAction string

const (
	DrawActionSelect        DrawAction = "select"
	DrawActionOverride      DrawAction = "override"
	DrawActionFinalize      DrawAction = "finalize"
	DrawActionReset         DrawAction = "reset"
	DrawActionDiscardToggle DrawAction = "discard_toggle"
)

// DrawState holds the per-session draw outcome. Created with the session,
// mutated only through DrawService, never deleted. A reset clears the
// winner fields; the history log keeps every transition.
type DrawState struct {
	SessionID         int64       `db:"session_id" json:"session_id"`
	WinnerKey         IdentityKey `db:"winner_key" json:"winner_key"`
	WinnerTickets     float64     `db:"winner_tickets" json:"winner_tickets"`
	WinnerProbability float64     `db:"winner_probability" json:"winner_probability"`
	PoolSize          int         `db:"pool_size" json:"pool_size"`
	Method            DrawMethod  `db:"method" json:"method"`
	Override          bool        `db:"override" json:"override"`
	Finalized         bool        `db:"finalized" json:"finalized"`
	FinalizedBy       string      `db:"finalized_by" json:"finalized_by"`
	FinalizedAt       *time.Time  `db:"finalized_at" json:"finalized_at,omitempty"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// DrawHistoryEntry is one row of the append-only audit trail. It snapshots
// tickets/probability/pool size at the instant of the action.
type DrawHistoryEntry struct {
	ID          int64       `db:"id" json:"id"`
	SessionID   int64       `db:"session_id" json:"session_id"`
	Action      DrawAction  `db:"action" json:"action"`
	Actor       string      `db:"actor" json:"actor"`
	WinnerKey   IdentityKey `db:"winner_key" json:"winner_key"`
	Tickets     float64     `db:"tickets" json:"tickets"`
	Probability float64     `db:"probability" json:"probability"`
	PoolSize    int         `db:"pool_size" json:"pool_size"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// HasWinner reports whether a winner is currently selected
func (d *DrawState) HasWinner() bool {
	return d.WinnerKey != ""
}

// IsFinalized reports whether the draw has been finalized
func (d *DrawState) IsFinalized() bool {
	return d.Finalized
}

// CanFinalize reports whether a finalize transition is legal: a winner is
// selected and not yet finalized.
func (d *DrawState) CanFinalize() bool {
	return d.HasWinner() && !d.Finalized
}

// SetWinner records a freshly selected winner
func (d *DrawState) SetWinner(key IdentityKey, tickets, probability float64, poolSize int, method DrawMethod) {
	d.WinnerKey = key
	d.WinnerTickets = tickets
	d.WinnerProbability = probability
	d.PoolSize = poolSize
	d.Method = method
	d.Override = method == DrawMethodOverride
}

// Finalize marks the current winner final
func (d *DrawState) Finalize(actor string) {
	now := time.Now()
	d.Finalized = true
	d.FinalizedBy = actor
	d.FinalizedAt = &now
}

// Clear wipes the winner and finalize fields, returning the state to
// no-winner. History is not touched; a prior finalize's ledger effect on
// past replays stands.
func (d *DrawState) Clear() {
	d.WinnerKey = ""
	d.WinnerTickets = 0
	d.WinnerProbability = 0
	d.PoolSize = 0
	d.Method = ""
	d.Override = false
	d.Finalized = false
	d.FinalizedBy = ""
	d.FinalizedAt = nil
}
