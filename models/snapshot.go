package models

import (
	"sort"
)

// Candidate is one entry of a session's draw pool: a student holding
// tickets as of that session.
type Candidate struct {
	Key         IdentityKey `json:"key"`
	Tickets     float64     `json:"tickets"`
	Probability float64     `json:"probability"`
}

// BalanceSnapshot is the ledger's answer for one session boundary: every
// positive balance, the ordered candidate pool, and the counts of eligible
// and roster-excluded records seen during replay.
type BalanceSnapshot struct {
	SessionID     int64                   `json:"session_id"`
	Balances      map[IdentityKey]float64 `json:"balances"`
	Candidates    []Candidate             `json:"candidates"`
	EligibleCount int                     `json:"eligible_count"`
	ExcludedCount int                     `json:"excluded_count"`
}

// TotalTickets sums the candidate pool's tickets
func (s *BalanceSnapshot) TotalTickets() float64 {
	var total float64
	for _, c := range s.Candidates {
		total += c.Tickets
	}
	return total
}

// FindCandidate returns the candidate for key, or nil
func (s *BalanceSnapshot) FindCandidate(key IdentityKey) *Candidate {
	for i := range s.Candidates {
		if s.Candidates[i].Key == key {
			return &s.Candidates[i]
		}
	}
	return nil
}

// SortCandidates orders candidates by (tickets descending, key ascending).
// Every snapshot and every draw walks candidates in exactly this order;
// changing it would change how floating-point ties break.
func SortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Tickets != candidates[j].Tickets {
			return candidates[i].Tickets > candidates[j].Tickets
		}
		return candidates[i].Key < candidates[j].Key
	})
}

// DrawPick is the selector's result
type DrawPick struct {
	Key         IdentityKey
	Tickets     float64
	Probability float64
}
