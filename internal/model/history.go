package model

import (
	"time"

	"github.com/google/uuid"
)

// ClaimHistoryEntry is one append-only observation of a claim update.
// At most one entry exists per (ClaimNumber, MessageID).
type ClaimHistoryEntry struct {
	ID             int64
	ClaimNumber    *string
	MessageID      string
	MessageDate    time.Time
	AmountReceived float64
	SettledSoFar   float64
	Status         string
	Remarks        string
	CreatedAt      time.Time
}

// LogStatus is the outcome of processing one message.
type LogStatus string

const (
	LogSuccess LogStatus = "Success"
	LogSkipped LogStatus = "Skipped"
	LogFailed  LogStatus = "Failed"
	LogError   LogStatus = "Error"
)

// ProcessingLogEntry records one message's outcome. Never mutated.
type ProcessingLogEntry struct {
	ID        int64
	RunID     uuid.UUID
	MessageID string
	Subject   string
	Status    LogStatus
	Error     *string
	Timestamp time.Time
}
