// Package feedback records operator ratings and feeds negative feedback back
// into episodic memory as learning points.
package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/adapter"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/repository"
	memoryuc "github.com/m-mizutani/sarthi/pkg/usecase/memory"
	"github.com/m-mizutani/sarthi/pkg/utils/logging"
)

const learnMaxTokens = 150

type Service struct {
	repo   repository.Repository
	llm    adapter.LLM
	memory *memoryuc.Manager
}

func New(repo repository.Repository, llm adapter.LLM, memory *memoryuc.Manager) *Service {
	return &Service{
		repo:   repo,
		llm:    llm,
		memory: memory,
	}
}

// Submit records the feedback and, for a down rating with a comment, derives
// a learning point and stores it as episodic memory. The learning step is
// best-effort: its failure never fails the submission.
func (s *Service) Submit(ctx context.Context, executionID model.ExecutionID, rating model.Rating, comment string) error {
	if err := rating.Validate(); err != nil {
		return err
	}

	fb := &model.Feedback{
		ExecutionID: executionID,
		Rating:      rating,
		Comment:     comment,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.PutFeedback(ctx, fb); err != nil {
		return goerr.Wrap(err, "failed to record feedback", goerr.V("execution_id", executionID))
	}

	if rating == model.RatingDown && comment != "" {
		s.learn(ctx, executionID, comment)
	}

	return nil
}

// learn asks the model to distill a learning point from the comment and
// writes it to episodic memory. On model failure the raw comment is stored
// instead.
func (s *Service) learn(ctx context.Context, executionID model.ExecutionID, comment string) {
	logger := logging.From(ctx)

	prompt := "User feedback: " + comment + "\n\n" +
		"Analyze this feedback and suggest what the system should learn or remember to avoid similar issues in the future. " +
		"Provide a concise learning point."

	learning, err := s.llm.Complete(ctx, prompt, learnMaxTokens)
	if err != nil {
		logger.Warn("feedback analysis failed, storing raw comment", "error", err)
		learning = comment
	}

	content := "Learning from feedback: " + strings.TrimSpace(learning)
	source := "feedback_" + string(executionID)
	if _, err := s.memory.Write(ctx, content, model.MemoryTypeEpisodic, source); err != nil {
		logger.Warn("failed to store feedback learning", "error", err)
	}
}
