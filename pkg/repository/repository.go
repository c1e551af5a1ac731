package repository

import (
	"context"

	"github.com/m-mizutani/sarthi/pkg/model"
)

// Repository is the Record Store: the authoritative persisted store of
// executions, memory items and observability events. Every operation commits
// as a single independent transaction; no multi-statement transaction spans
// two pipeline stages.
type Repository interface {
	// CreateExecution saves a new execution record
	CreateExecution(ctx context.Context, exec *model.Execution) error

	// GetExecution retrieves an execution by ID
	GetExecution(ctx context.Context, id model.ExecutionID) (*model.Execution, error)

	// UpdateExecutionStatus transitions a running execution's status.
	// Terminal statuses also set the completion timestamp and are
	// immutable: a later update returns ErrExecutionFinished.
	UpdateExecutionStatus(ctx context.Context, id model.ExecutionID, status model.ExecutionStatus, result string) error

	// PutEvent appends an observability event
	PutEvent(ctx context.Context, event *model.Event) error

	// ListEvents retrieves events for an execution ordered by timestamp
	ListEvents(ctx context.Context, id model.ExecutionID) ([]*model.Event, error)

	// CreateMemory saves a new memory item
	CreateMemory(ctx context.Context, mem *model.Memory) error

	// GetMemory retrieves a memory item by ID, deleted or not
	GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error)

	// ListMemories retrieves non-deleted memory items, optionally filtered
	// by type (empty type matches all)
	ListMemories(ctx context.Context, memType model.MemoryType) ([]*model.Memory, error)

	// UpdateMemoryContent replaces a memory item's content in place
	UpdateMemoryContent(ctx context.Context, id model.MemoryID, content string) error

	// SoftDeleteMemory marks a memory item as deleted. Calling it again on
	// the same ID is not an error.
	SoftDeleteMemory(ctx context.Context, id model.MemoryID) error

	// PutFeedback saves operator feedback for an execution
	PutFeedback(ctx context.Context, fb *model.Feedback) error

	// Close releases the underlying store
	Close() error
}
