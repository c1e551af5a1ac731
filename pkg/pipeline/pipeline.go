// Package pipeline implements the orchestrator: an ordered state machine
// driving a query through validation, retrieval, memory correlation,
// reasoning, generation, memory persistence and output validation. Each stage
// is a pure transform of the execution-scoped State; only input validation
// can abort the run.
package pipeline

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/adapter"
	"github.com/m-mizutani/sarthi/pkg/guardrail"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/repository"
	memoryuc "github.com/m-mizutani/sarthi/pkg/usecase/memory"
	"github.com/m-mizutani/sarthi/pkg/usecase/retrieval"
	"github.com/m-mizutani/sarthi/pkg/utils/logging"
)

// ErrInputRejected is returned when input validation fails. This is the one
// hard-stop transition of the pipeline.
var ErrInputRejected = goerr.New("input validation failed")

// State carries everything a stage needs and everything it produced. Stages
// receive a State value and return a successor; they never mutate shared
// structures.
type State struct {
	ExecutionID    model.ExecutionID
	ConversationID model.ConversationID
	Query          string
	MaskedQuery    string

	Documents  []*retrieval.Item
	MemoryHits []*retrieval.Item
	Correlated []*model.Memory

	ReasoningSummary string
	Response         string
}

// Result is the outcome of a completed pipeline run.
type Result struct {
	ExecutionID    model.ExecutionID
	ConversationID model.ConversationID
	Response       string
}

// stage is one step of the pipeline. The ordered stage list below is the
// single definition of the pipeline's structure.
type stage struct {
	name     string
	agent    string
	startMsg string
	doneMsg  string
	run      func(*Pipeline, context.Context, State) (State, error)
}

var stages = []stage{
	{"input_validate", "GuardrailAgent", "Validating input", "Input validation completed", (*Pipeline).inputValidate},
	{"retrieve", "RetrievalAgent", "Retrieving documents and memory", "Retrieval completed", (*Pipeline).retrieve},
	{"correlate_memory", "MemoryAgent", "Correlating historical memory", "Memory correlation completed", (*Pipeline).correlateMemory},
	{"reason", "ReasoningAgent", "Starting reasoning", "Reasoning completed", (*Pipeline).reason},
	{"generate", "GeneratorAgent", "Generating response", "Response generation completed", (*Pipeline).generate},
	{"persist_memory", "MemoryAgent", "Persisting interaction memory", "Memory persistence completed", (*Pipeline).persistMemory},
	{"output_validate", "GuardrailAgent", "Validating output", "Output validation completed", (*Pipeline).outputValidate},
}

// Pipeline drives executions. All collaborators are injected at construction;
// the pipeline owns no connections itself.
type Pipeline struct {
	repo      repository.Repository
	validator *guardrail.Validator
	retriever *retrieval.Retriever
	memory    *memoryuc.Manager
	llm       adapter.LLM
}

type NewInput struct {
	Repo      repository.Repository
	Validator *guardrail.Validator
	Retriever *retrieval.Retriever
	Memory    *memoryuc.Manager
	LLM       adapter.LLM
}

func New(input NewInput) *Pipeline {
	return &Pipeline{
		repo:      input.Repo,
		validator: input.Validator,
		retriever: input.Retriever,
		memory:    input.Memory,
		llm:       input.LLM,
	}
}

// Run executes the full pipeline for one query. It creates the execution
// record, walks the stage list, and leaves the execution in a terminal state.
// A stage error marks the execution failed and propagates to the caller; the
// run is never retried automatically.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	state := State{
		ExecutionID:    model.NewExecutionID(),
		ConversationID: model.NewConversationID(),
		Query:          query,
	}

	exec := &model.Execution{
		ID:             state.ExecutionID,
		ConversationID: state.ConversationID,
		Query:          query,
		Status:         model.ExecutionStatusRunning,
		StartedAt:      time.Now(),
	}
	if err := p.repo.CreateExecution(ctx, exec); err != nil {
		return nil, goerr.Wrap(err, "failed to create execution")
	}

	p.logEvent(ctx, state.ExecutionID, model.EventAgentStarted, "Orchestrator", "Starting orchestration")

	for _, st := range stages {
		p.logEvent(ctx, state.ExecutionID, model.EventAgentStarted, st.agent, st.startMsg)

		next, err := st.run(p, ctx, state)
		if err != nil {
			if updateErr := p.repo.UpdateExecutionStatus(ctx, state.ExecutionID, model.ExecutionStatusFailed, err.Error()); updateErr != nil {
				logging.From(ctx).Error("failed to mark execution failed", "execution_id", state.ExecutionID, "error", updateErr)
			}
			return nil, goerr.Wrap(err, "pipeline stage failed", goerr.V("stage", st.name), goerr.V("execution_id", state.ExecutionID))
		}
		state = next

		p.logEvent(ctx, state.ExecutionID, model.EventAgentCompleted, st.agent, st.doneMsg)
	}

	if err := p.repo.UpdateExecutionStatus(ctx, state.ExecutionID, model.ExecutionStatusCompleted, state.Response); err != nil {
		return nil, goerr.Wrap(err, "failed to complete execution", goerr.V("execution_id", state.ExecutionID))
	}

	p.logEvent(ctx, state.ExecutionID, model.EventAgentCompleted, "Orchestrator", "Orchestration completed")

	return &Result{
		ExecutionID:    state.ExecutionID,
		ConversationID: state.ConversationID,
		Response:       state.Response,
	}, nil
}

// logEvent appends an observability event. Event logging never fails the
// pipeline.
func (p *Pipeline) logEvent(ctx context.Context, id model.ExecutionID, eventType model.EventType, agent, message string) {
	ev := &model.Event{
		ExecutionID: id,
		EventType:   eventType,
		AgentName:   agent,
		Message:     message,
		Timestamp:   time.Now(),
	}
	if err := p.repo.PutEvent(ctx, ev); err != nil {
		logging.From(ctx).Warn("failed to log event", "execution_id", id, "error", err)
	}
}
