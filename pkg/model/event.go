package model

import "time"

type EventType string

const (
	EventAgentStarted   EventType = "agent_started"
	EventAgentCompleted EventType = "agent_completed"
	EventToolCall       EventType = "tool_call"
	EventDataLoader     EventType = "data_loader"
)

// Event is an append-only observability record tied to an execution. Events
// are never mutated or deleted; ordering by timestamp is the event log for
// the execution.
type Event struct {
	ID          int64
	ExecutionID ExecutionID
	EventType   EventType
	AgentName   string
	Message     string
	Timestamp   time.Time
}
