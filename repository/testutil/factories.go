package testutil

import (
	"plateraffle/models"
)

// CreateTestStudent creates a roster entry with default values
func CreateTestStudent(identifier, preferredName, lastName string) *models.Student {
	student := &models.Student{
		StudentIdentifier: identifier,
		PreferredName:     preferredName,
		LastName:          lastName,
		Grade:             "5",
		House:             "maple",
		Active:            true,
	}
	key, err := student.Key()
	if err != nil {
		panic(err)
	}
	student.IdentityKey = key
	return student
}

// CreateTestObservation creates a plate record for a session
func CreateTestObservation(sessionID int64, key models.IdentityKey, category models.Category) *models.Observation {
	return &models.Observation{
		SessionID:   sessionID,
		IdentityKey: key,
		Category:    category,
	}
}

// CreateTestHistoryEntry creates an audit trail entry with winner fields set
func CreateTestHistoryEntry(sessionID int64, action models.DrawAction, actor string) *models.DrawHistoryEntry {
	return &models.DrawHistoryEntry{
		SessionID:   sessionID,
		Action:      action,
		Actor:       actor,
		WinnerKey:   "id:101",
		Tickets:     2,
		Probability: 50,
		PoolSize:    4,
	}
}
