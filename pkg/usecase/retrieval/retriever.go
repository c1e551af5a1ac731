// Package retrieval implements the resilient retriever: semantic search
// against the vector index, degrading to keyword-overlap ranking when the
// embedding provider or the index cannot serve the query. An embedding outage
// must not cascade into total retrieval failure.
package retrieval

import (
	"context"
	"sort"

	"github.com/m-mizutani/sarthi/pkg/adapter"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/repository"
	"github.com/m-mizutani/sarthi/pkg/utils/logging"
	"github.com/m-mizutani/sarthi/pkg/vectorindex"
)

// Item is one ranked retrieval hit.
type Item struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Retriever answers "find relevant content for query X" over documents and
// memory. Read-only: it never writes to either store.
type Retriever struct {
	embedder adapter.Embedder
	index    vectorindex.Index
	repo     repository.Repository
}

func New(embedder adapter.Embedder, index vectorindex.Index, repo repository.Repository) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		repo:     repo,
	}
}

// Documents retrieves relevant document chunks for the query.
func (r *Retriever) Documents(ctx context.Context, query string, topK int) ([]*Item, error) {
	if items, ok := r.semantic(ctx, vectorindex.CollectionDocuments, query, nil, topK); ok {
		return items, nil
	}

	logging.From(ctx).Debug("falling back to keyword search", "collection", vectorindex.CollectionDocuments, "query", query)

	all, err := r.index.GetAll(ctx, vectorindex.CollectionDocuments)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Item, 0, len(all))
	for _, res := range all {
		candidates = append(candidates, &Item{ID: res.ID, Text: res.Document, Metadata: res.Metadata})
	}

	return rankByKeywords(query, candidates, topK), nil
}

// Memory retrieves relevant memory items for the query, optionally filtered
// by memory type. The keyword fallback scans the Record Store, which stays
// available when the vector index does not.
func (r *Retriever) Memory(ctx context.Context, query string, memType model.MemoryType, topK int) ([]*Item, error) {
	var where map[string]string
	if memType != "" {
		where = map[string]string{"type": string(memType)}
	}

	if items, ok := r.semantic(ctx, vectorindex.CollectionMemory, query, where, topK); ok {
		return items, nil
	}

	logging.From(ctx).Debug("falling back to keyword search", "collection", vectorindex.CollectionMemory, "query", query)

	memories, err := r.repo.ListMemories(ctx, memType)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Item, 0, len(memories))
	for _, mem := range memories {
		candidates = append(candidates, &Item{
			ID:   string(mem.ID),
			Text: mem.Content,
			Metadata: map[string]string{
				"type":   string(mem.Type),
				"source": mem.Source,
			},
		})
	}

	return rankByKeywords(query, candidates, topK), nil
}

// semantic attempts the embedding path. ok is false when the caller should
// fall back: provider failure, the all-zero sentinel, an index failure, or an
// empty result set.
func (r *Retriever) semantic(ctx context.Context, collection, query string, where map[string]string, topK int) ([]*Item, bool) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logging.From(ctx).Warn("embedding failed", "collection", collection, "error", err)
		return nil, false
	}
	if adapter.IsZeroVector(vector) {
		return nil, false
	}

	hits, err := r.index.Query(ctx, collection, vector, topK, where)
	if err != nil {
		logging.From(ctx).Warn("vector query failed", "collection", collection, "error", err)
		return nil, false
	}

	items := make([]*Item, 0, len(hits))
	for _, h := range hits {
		if h.Document == "" {
			continue
		}
		items = append(items, &Item{ID: h.ID, Text: h.Document, Metadata: h.Metadata})
	}
	if len(items) == 0 {
		return nil, false
	}

	logging.From(ctx).Debug("semantic search succeeded", "collection", collection, "hits", len(items))
	return items, true
}

// rankByKeywords scores candidates by stop-word-filtered token overlap with
// the query, drops zero scores, and returns the topK best. An empty result is
// a valid outcome, not an error.
func rankByKeywords(query string, candidates []*Item, topK int) []*Item {
	tokens := QueryTokens(query)
	if len(tokens) == 0 {
		return nil
	}

	type scored struct {
		item  *Item
		score int
	}
	var ranked []scored
	for _, c := range candidates {
		if s := Score(tokens, c.Text); s > 0 {
			ranked = append(ranked, scored{item: c, score: s})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	items := make([]*Item, 0, len(ranked))
	for _, s := range ranked {
		items = append(items, s.item)
	}
	return items
}
