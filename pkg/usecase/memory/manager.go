// Package memory owns the dual-store contract for memory items: the Record
// Store row is authoritative and written synchronously, the vector index
// projection is a best-effort cache mirrored after the fact. A memory that
// could not be embedded stays readable through keyword fallback.
package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/adapter"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/repository"
	"github.com/m-mizutani/sarthi/pkg/usecase/retrieval"
	"github.com/m-mizutani/sarthi/pkg/utils/logging"
	"github.com/m-mizutani/sarthi/pkg/vectorindex"
)

// Manager coordinates memory reads and writes across the Record Store and
// the vector index.
type Manager struct {
	repo      repository.Repository
	index     vectorindex.Index
	embedder  adapter.Embedder
	retriever *retrieval.Retriever
}

func New(repo repository.Repository, index vectorindex.Index, embedder adapter.Embedder, retriever *retrieval.Retriever) *Manager {
	return &Manager{
		repo:      repo,
		index:     index,
		embedder:  embedder,
		retriever: retriever,
	}
}

// Write persists a new memory item. The Record Store insert must succeed or
// the whole write fails; mirroring into the vector index is attempted after
// and its failure is logged but never propagated.
func (m *Manager) Write(ctx context.Context, content string, memType model.MemoryType, source string) (model.MemoryID, error) {
	if err := memType.Validate(); err != nil {
		return "", err
	}

	now := time.Now()
	mem := &model.Memory{
		ID:        model.NewMemoryID(),
		Type:      memType,
		Content:   content,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.repo.CreateMemory(ctx, mem); err != nil {
		return "", goerr.Wrap(err, "failed to persist memory", goerr.V("type", memType))
	}

	m.mirror(ctx, mem)

	return mem.ID, nil
}

// mirror embeds the memory content and upserts it into the vector index.
// Best-effort only.
func (m *Manager) mirror(ctx context.Context, mem *model.Memory) {
	logger := logging.From(ctx)

	vector, err := m.embedder.Embed(ctx, mem.Content)
	if err != nil {
		logger.Warn("memory embedding failed, skipping vector mirror", "id", mem.ID, "error", err)
		return
	}
	if adapter.IsZeroVector(vector) {
		logger.Warn("memory embedding returned zero vector, skipping vector mirror", "id", mem.ID)
		return
	}

	entry := vectorindex.Entry{
		ID:       string(mem.ID),
		Vector:   vector,
		Document: mem.Content,
		Metadata: map[string]string{
			"type":   string(mem.Type),
			"source": mem.Source,
		},
	}
	if err := m.index.Upsert(ctx, vectorindex.CollectionMemory, []vectorindex.Entry{entry}); err != nil {
		logger.Warn("memory vector upsert failed", "id", mem.ID, "error", err)
	}
}

// Read retrieves memory items. Without a query it returns all non-deleted
// items from the Record Store, optionally filtered by type. With a query it
// tries the retriever's memory path first, then a local keyword scan over the
// Record Store when that yields nothing.
func (m *Manager) Read(ctx context.Context, query string, memType model.MemoryType, topK int) ([]*model.Memory, error) {
	if query == "" {
		return m.repo.ListMemories(ctx, memType)
	}

	items, err := m.retriever.Memory(ctx, query, memType, topK)
	if err != nil {
		logging.From(ctx).Warn("memory retrieval failed, falling back to record store scan", "error", err)
	}
	if len(items) > 0 {
		// resolve hits to their authoritative Record Store rows; the vector
		// index may hold stale or orphaned entries
		logger := logging.From(ctx)
		memories := make([]*model.Memory, 0, len(items))
		for _, it := range items {
			mem, err := m.repo.GetMemory(ctx, model.MemoryID(it.ID))
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					logger.Warn("vector hit has no record store row, skipping", "id", it.ID)
					continue
				}
				return nil, goerr.Wrap(err, "failed to resolve memory hit", goerr.V("id", it.ID))
			}
			if mem.IsDeleted {
				continue
			}
			memories = append(memories, mem)
		}
		if len(memories) > 0 {
			return memories, nil
		}
	}

	return m.keywordScan(ctx, query, memType, topK)
}

// keywordScan ranks the Record Store's non-deleted items by token overlap
// with the query. Ties keep Record Store iteration order.
func (m *Manager) keywordScan(ctx context.Context, query string, memType model.MemoryType, topK int) ([]*model.Memory, error) {
	memories, err := m.repo.ListMemories(ctx, memType)
	if err != nil {
		return nil, err
	}

	tokens := retrieval.QueryTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	type scored struct {
		mem   *model.Memory
		score int
	}
	var ranked []scored
	for _, mem := range memories {
		if s := retrieval.Score(tokens, mem.Content); s > 0 {
			ranked = append(ranked, scored{mem: mem, score: s})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	result := make([]*model.Memory, 0, len(ranked))
	for _, s := range ranked {
		result = append(result, s.mem)
	}
	return result, nil
}

// Update replaces a memory item's content in the Record Store only. The
// vector projection is not re-embedded, so semantic search on the new content
// is stale until a full reindex.
func (m *Manager) Update(ctx context.Context, id model.MemoryID, content string) error {
	return m.repo.UpdateMemoryContent(ctx, id, content)
}

// Delete soft-deletes a memory item. Idempotent. The vector entry, if any, is
// left in place.
func (m *Manager) Delete(ctx context.Context, id model.MemoryID) error {
	return m.repo.SoftDeleteMemory(ctx, id)
}
