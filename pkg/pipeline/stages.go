package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/usecase/retrieval"
	"github.com/m-mizutani/sarthi/pkg/utils/logging"
)

const (
	contextBudget     = 2000
	retrieveTopK      = 5
	correlateTopK     = 5
	reasonMaxTokens   = 300
	generateMaxTokens = 500
	elaborateTokens   = 1000
	maxPromptMemories = 3
	persistMaxChars   = 500
)

// refusalMessage replaces any response that fails output validation.
const refusalMessage = "I apologize, but I cannot provide a response to this query due to safety concerns."

// elaborationKeywords switch generation to the larger output budget.
var elaborationKeywords = []string{"explain", "why", "how", "detail", "step by step"}

func (p *Pipeline) inputValidate(ctx context.Context, state State) (State, error) {
	res := p.validator.ValidateInput(state.Query)
	if !res.Valid {
		return state, goerr.Wrap(ErrInputRejected,
			fmt.Sprintf("input validation failed: %s", strings.Join(res.Issues, ", ")),
			goerr.V("issues", res.Issues))
	}

	state.MaskedQuery = res.MaskedContent
	return state, nil
}

func (p *Pipeline) retrieve(ctx context.Context, state State) (State, error) {
	docs, err := p.retriever.Documents(ctx, state.MaskedQuery, retrieveTopK)
	if err != nil {
		return state, goerr.Wrap(err, "document retrieval failed")
	}
	state.Documents = docs

	hits, err := p.retriever.Memory(ctx, state.MaskedQuery, "", retrieveTopK/2)
	if err != nil {
		return state, goerr.Wrap(err, "memory retrieval failed")
	}
	state.MemoryHits = hits

	p.logEvent(ctx, state.ExecutionID, model.EventToolCall, "RetrievalAgent",
		fmt.Sprintf("Query: %s, Docs found: %d, Memory found: %d", state.MaskedQuery, len(docs), len(hits)))

	return state, nil
}

func (p *Pipeline) correlateMemory(ctx context.Context, state State) (State, error) {
	correlated, err := p.memory.Read(ctx, state.MaskedQuery, "", correlateTopK)
	if err != nil {
		logging.From(ctx).Warn("memory correlation failed, continuing without history", "execution_id", state.ExecutionID, "error", err)
		correlated = nil
	}
	state.Correlated = correlated
	return state, nil
}

func (p *Pipeline) reason(ctx context.Context, state State) (State, error) {
	combined := buildContext(state.Documents, state.MemoryHits, state.Correlated, contextBudget)

	prompt := fmt.Sprintf(`Query: %s
Context: %s

Provide a brief reasoning summary about how to answer this query based on the context.`, state.MaskedQuery, combined)

	summary, err := p.llm.Complete(ctx, prompt, reasonMaxTokens)
	if err != nil {
		logging.From(ctx).Warn("reasoning call failed, using document summary", "execution_id", state.ExecutionID, "error", err)
		summary = reasoningFallback(state.Documents)
	}

	state.ReasoningSummary = strings.TrimSpace(summary)
	return state, nil
}

// reasoningFallback substitutes document snippets for a model-produced
// summary.
func reasoningFallback(docs []*retrieval.Item) string {
	if len(docs) == 0 {
		return "The query has been processed, but no supporting documents were found."
	}

	var parts []string
	for i, doc := range docs {
		if i >= maxPromptMemories {
			break
		}
		parts = append(parts, truncate(doc.Text, 200))
	}
	return "Based on the available documents: " + strings.Join(parts, " ")
}

func (p *Pipeline) generate(ctx context.Context, state State) (State, error) {
	maxTokens := generateMaxTokens
	instruction := "Generate a helpful response with citations to the source documents.\nInclude specific references to incidents or documents where relevant."
	if wantsElaboration(state.MaskedQuery) {
		maxTokens = elaborateTokens
		instruction = "Generate a detailed, step-by-step response with citations to the source documents.\nInclude specific references to incidents or documents where relevant."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\nReasoning: %s\n", state.MaskedQuery, state.ReasoningSummary)
	if recent := recentMemories(state.Correlated, maxPromptMemories); len(recent) > 0 {
		sb.WriteString("\nRecent context:\n")
		for _, mem := range recent {
			sb.WriteString("- " + truncate(mem.Content, 200) + "\n")
		}
	}
	sb.WriteString("\n" + instruction)

	response, err := p.llm.Complete(ctx, sb.String(), maxTokens)
	if err != nil {
		logging.From(ctx).Warn("generation call failed, synthesizing from documents", "execution_id", state.ExecutionID, "error", err)
		response = generationFallback(state.Documents)
	}

	state.Response = postProcess(response)
	return state, nil
}

// generationFallback synthesizes a response from retrieved documents when the
// model is unavailable.
func generationFallback(docs []*retrieval.Item) string {
	if len(docs) == 0 {
		return "I apologize, but I am unable to generate a response right now. Please try again later."
	}

	var sb strings.Builder
	sb.WriteString("I could not produce a full analysis, but the most relevant information found was:\n")
	for i, doc := range docs {
		if i >= maxPromptMemories {
			break
		}
		sb.WriteString("\n- " + truncate(doc.Text, 240))
	}
	return sb.String()
}

func (p *Pipeline) persistMemory(ctx context.Context, state State) (State, error) {
	logger := logging.From(ctx)
	source := "execution_" + string(state.ExecutionID)

	semantic := truncate("Query: "+state.MaskedQuery+"\nReasoning: "+state.ReasoningSummary, persistMaxChars)
	if _, err := p.memory.Write(ctx, semantic, model.MemoryTypeSemantic, source); err != nil {
		logger.Warn("failed to persist semantic memory", "execution_id", state.ExecutionID, "error", err)
	}

	episodic := truncate("Query: "+state.MaskedQuery+"\nResponse: "+state.Response, persistMaxChars)
	if _, err := p.memory.Write(ctx, episodic, model.MemoryTypeEpisodic, source); err != nil {
		logger.Warn("failed to persist episodic memory", "execution_id", state.ExecutionID, "error", err)
	}

	return state, nil
}

func (p *Pipeline) outputValidate(ctx context.Context, state State) (State, error) {
	res := p.validator.ValidateOutput(state.Response)
	if !res.Valid {
		p.logEvent(ctx, state.ExecutionID, model.EventToolCall, "GuardrailAgent",
			"Response replaced by safety refusal: "+strings.Join(res.Issues, ", "))
		state.Response = refusalMessage
	}
	return state, nil
}

// wantsElaboration reports whether the query asks for a detailed answer.
func wantsElaboration(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range elaborationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// recentMemories returns up to n memories, newest first.
func recentMemories(memories []*model.Memory, n int) []*model.Memory {
	sorted := make([]*model.Memory, len(memories))
	copy(sorted, memories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
