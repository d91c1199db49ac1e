package models

import (
	"time"
)

// Student is one roster row. The roster is maintained by an out-of-band
// upload; the ledger only reads it for eligibility and profile lookups.
type Student struct {
	IdentityKey       IdentityKey `db:"identity_key" json:"identity_key"`
	StudentIdentifier string      `db:"student_identifier" json:"student_identifier"`
	PreferredName     string      `db:"preferred_name" json:"preferred_name"`
	LastName          string      `db:"last_name" json:"last_name"`
	Grade             string      `db:"grade" json:"grade"`
	House             string      `db:"house" json:"house"`
	Active            bool        `db:"active" json:"active"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// Key derives the canonical identity key from the student's own fields
func (s *Student) Key() (IdentityKey, error) {
	return NewIdentityKey(s.StudentIdentifier, s.PreferredName, s.LastName)
}

// DisplayName returns the human-readable name for the student
func (s *Student) DisplayName() string {
	if s.PreferredName == "" && s.LastName == "" {
		return s.StudentIdentifier
	}
	return s.PreferredName + " " + s.LastName
}
