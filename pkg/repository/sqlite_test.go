package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/repository"
)

func newRepo(t *testing.T) repository.Repository {
	t.Helper()
	repo, err := repository.New(filepath.Join(t.TempDir(), "test.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestExecutionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	exec := &model.Execution{
		ID:             model.NewExecutionID(),
		ConversationID: model.NewConversationID(),
		Query:          "gateway timeout on checkout",
		Status:         model.ExecutionStatusRunning,
		StartedAt:      time.Now(),
	}
	gt.NoError(t, repo.CreateExecution(ctx, exec))

	got, err := repo.GetExecution(ctx, exec.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Query, exec.Query)
	gt.Equal(t, got.Status, model.ExecutionStatusRunning)
	gt.Nil(t, got.CompletedAt)

	gt.NoError(t, repo.UpdateExecutionStatus(ctx, exec.ID, model.ExecutionStatusCompleted, "all good"))

	got, err = repo.GetExecution(ctx, exec.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Status, model.ExecutionStatusCompleted)
	gt.Equal(t, got.Result, "all good")
	gt.NotNil(t, got.CompletedAt)
}

func TestExecutionStatusImmutableOnceTerminal(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	exec := &model.Execution{
		ID:             model.NewExecutionID(),
		ConversationID: model.NewConversationID(),
		Query:          "gateway timeout on checkout",
		Status:         model.ExecutionStatusRunning,
		StartedAt:      time.Now(),
	}
	gt.NoError(t, repo.CreateExecution(ctx, exec))
	gt.NoError(t, repo.UpdateExecutionStatus(ctx, exec.ID, model.ExecutionStatusCompleted, "all good"))

	err := repo.UpdateExecutionStatus(ctx, exec.ID, model.ExecutionStatusFailed, "late failure")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, repository.ErrExecutionFinished))

	got, err := repo.GetExecution(ctx, exec.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Status, model.ExecutionStatusCompleted)
	gt.Equal(t, got.Result, "all good")
}

func TestUpdateExecutionStatusNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	err := repo.UpdateExecutionStatus(ctx, model.ExecutionID("no-such-id"), model.ExecutionStatusCompleted, "done")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestGetExecutionNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.GetExecution(ctx, model.ExecutionID("no-such-id"))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestEventOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	execID := model.NewExecutionID()
	base := time.Now()
	messages := []string{"first", "second", "third"}
	for i, msg := range messages {
		ev := &model.Event{
			ExecutionID: execID,
			EventType:   model.EventAgentStarted,
			AgentName:   "Orchestrator",
			Message:     msg,
			Timestamp:   base.Add(time.Duration(i) * time.Millisecond),
		}
		gt.NoError(t, repo.PutEvent(ctx, ev))
	}

	events, err := repo.ListEvents(ctx, execID)
	gt.NoError(t, err)
	gt.A(t, events).Length(3)
	for i, ev := range events {
		gt.Equal(t, ev.Message, messages[i])
	}

	other, err := repo.ListEvents(ctx, model.NewExecutionID())
	gt.NoError(t, err)
	gt.A(t, other).Length(0)
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now()
	mem := &model.Memory{
		ID:        model.NewMemoryID(),
		Type:      model.MemoryTypeEpisodic,
		Content:   "restarting the gateway resolved the timeout",
		Source:    "execution_abc",
		CreatedAt: now,
		UpdatedAt: now,
	}
	gt.NoError(t, repo.CreateMemory(ctx, mem))

	got, err := repo.GetMemory(ctx, mem.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Content, mem.Content)
	gt.Equal(t, got.Type, model.MemoryTypeEpisodic)
	gt.False(t, got.IsDeleted)
}

func TestListMemoriesTypeFilter(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now()
	for i, memType := range []model.MemoryType{model.MemoryTypeEpisodic, model.MemoryTypeSemantic, model.MemoryTypeEpisodic} {
		mem := &model.Memory{
			ID:        model.NewMemoryID(),
			Type:      memType,
			Content:   "item",
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now,
		}
		gt.NoError(t, repo.CreateMemory(ctx, mem))
	}

	episodic, err := repo.ListMemories(ctx, model.MemoryTypeEpisodic)
	gt.NoError(t, err)
	gt.A(t, episodic).Length(2)

	all, err := repo.ListMemories(ctx, "")
	gt.NoError(t, err)
	gt.A(t, all).Length(3)
}

func TestSoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now()
	mem := &model.Memory{
		ID:        model.NewMemoryID(),
		Type:      model.MemoryTypeSemantic,
		Content:   "stale fact",
		CreatedAt: now,
		UpdatedAt: now,
	}
	gt.NoError(t, repo.CreateMemory(ctx, mem))

	gt.NoError(t, repo.SoftDeleteMemory(ctx, mem.ID))

	all, err := repo.ListMemories(ctx, "")
	gt.NoError(t, err)
	gt.A(t, all).Length(0)

	// deleting again is a no-op, as is deleting an unknown id
	gt.NoError(t, repo.SoftDeleteMemory(ctx, mem.ID))
	gt.NoError(t, repo.SoftDeleteMemory(ctx, model.MemoryID("no-such-id")))
}

func TestUpdateMemoryContent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	now := time.Now()
	mem := &model.Memory{
		ID:        model.NewMemoryID(),
		Type:      model.MemoryTypeSemantic,
		Content:   "old content",
		CreatedAt: now,
		UpdatedAt: now,
	}
	gt.NoError(t, repo.CreateMemory(ctx, mem))

	gt.NoError(t, repo.UpdateMemoryContent(ctx, mem.ID, "new content"))

	got, err := repo.GetMemory(ctx, mem.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Content, "new content")

	err = repo.UpdateMemoryContent(ctx, model.MemoryID("no-such-id"), "x")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestPutFeedback(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	fb := &model.Feedback{
		ExecutionID: model.NewExecutionID(),
		Rating:      model.RatingDown,
		Comment:     "response missed the actual incident",
		CreatedAt:   time.Now(),
	}
	gt.NoError(t, repo.PutFeedback(ctx, fb))
}
