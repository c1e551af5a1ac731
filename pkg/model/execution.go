package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var ErrInvalidExecutionStatus = goerr.New("invalid execution status")

type ExecutionID string

// NewExecutionID generates a new unique ExecutionID
func NewExecutionID() ExecutionID {
	return ExecutionID(uuid.New().String())
}

type ConversationID string

// NewConversationID generates a new unique ConversationID
func NewConversationID() ConversationID {
	return ConversationID(uuid.New().String())
}

type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Validate checks if the execution status is valid
func (s ExecutionStatus) Validate() error {
	switch s {
	case ExecutionStatusRunning, ExecutionStatusCompleted, ExecutionStatusFailed:
		return nil
	default:
		return goerr.Wrap(ErrInvalidExecutionStatus, "unknown status", goerr.V("status", s))
	}
}

// Terminal reports whether the status is a terminal state. An execution in a
// terminal state must not be mutated again.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// Execution represents one end-to-end pipeline run for a single query.
type Execution struct {
	ID             ExecutionID
	ConversationID ConversationID
	Query          string
	Status         ExecutionStatus
	StartedAt      time.Time
	CompletedAt    *time.Time
	Result         string
}
