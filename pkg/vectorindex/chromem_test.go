package vectorindex_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sarthi/pkg/vectorindex"
)

func TestUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()

	entries := []vectorindex.Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Document: "gateway timeout runbook", Metadata: map[string]string{"source": "seed"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Document: "database connection failures", Metadata: map[string]string{"source": "seed"}},
		{ID: "c", Vector: []float32{0, 0, 1}, Document: "certificate expiration notes", Metadata: map[string]string{"source": "seed"}},
	}
	gt.NoError(t, idx.Upsert(ctx, vectorindex.CollectionDocuments, entries))

	results, err := idx.Query(ctx, vectorindex.CollectionDocuments, []float32{1, 0, 0}, 2, nil)
	gt.NoError(t, err)
	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].ID, "a")
	gt.Equal(t, results[0].Document, "gateway timeout runbook")
}

func TestQueryShrinksLimit(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()

	entries := []vectorindex.Entry{
		{ID: "only", Vector: []float32{1, 0, 0}, Document: "single document"},
	}
	gt.NoError(t, idx.Upsert(ctx, vectorindex.CollectionDocuments, entries))

	// k exceeds collection size; the query must still succeed
	results, err := idx.Query(ctx, vectorindex.CollectionDocuments, []float32{1, 0, 0}, 10, nil)
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].ID, "only")
}

func TestQueryEmptyCollection(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()

	results, err := idx.Query(ctx, vectorindex.CollectionDocuments, []float32{1, 0, 0}, 5, nil)
	gt.NoError(t, err)
	gt.A(t, results).Length(0)
}

func TestQueryWithWhere(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()

	entries := []vectorindex.Entry{
		{ID: "m1", Vector: []float32{1, 0, 0}, Document: "episodic note", Metadata: map[string]string{"type": "episodic"}},
		{ID: "m2", Vector: []float32{0.9, 0.1, 0}, Document: "semantic note", Metadata: map[string]string{"type": "semantic"}},
	}
	gt.NoError(t, idx.Upsert(ctx, vectorindex.CollectionMemory, entries))

	results, err := idx.Query(ctx, vectorindex.CollectionMemory, []float32{1, 0, 0}, 2, map[string]string{"type": "semantic"})
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].ID, "m2")
}

func TestGetAllPreservesOrder(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()

	first := []vectorindex.Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Document: "first"},
		{ID: "b", Vector: []float32{0, 1, 0}, Document: "second"},
	}
	gt.NoError(t, idx.Upsert(ctx, vectorindex.CollectionDocuments, first))

	all, err := idx.GetAll(ctx, vectorindex.CollectionDocuments)
	gt.NoError(t, err)
	gt.A(t, all).Length(2)
	gt.Equal(t, all[0].ID, "a")
	gt.Equal(t, all[1].ID, "b")

	// re-upserting an existing id replaces in place
	update := []vectorindex.Entry{
		{ID: "a", Vector: []float32{0, 0, 1}, Document: "first updated"},
	}
	gt.NoError(t, idx.Upsert(ctx, vectorindex.CollectionDocuments, update))

	all, err = idx.GetAll(ctx, vectorindex.CollectionDocuments)
	gt.NoError(t, err)
	gt.A(t, all).Length(2)
	gt.Equal(t, all[0].Document, "first updated")
}

func TestPersistentIndexSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := vectorindex.NewChromemPersistent(dir)
	gt.NoError(t, err)

	entries := []vectorindex.Entry{
		{ID: "doc_1", Vector: []float32{1, 0, 0}, Document: "Gateway timeout errors typically occur when the service is overloaded.", Metadata: map[string]string{"source": "seed"}},
		{ID: "doc_2", Vector: []float32{0, 1, 0}, Document: "Database connection pool exhaustion during peak traffic.", Metadata: map[string]string{"source": "seed"}},
	}
	gt.NoError(t, idx.Upsert(ctx, vectorindex.CollectionDocuments, entries))

	// a second instance at the same path must see what the first wrote
	reopened, err := vectorindex.NewChromemPersistent(dir)
	gt.NoError(t, err)

	all, err := reopened.GetAll(ctx, vectorindex.CollectionDocuments)
	gt.NoError(t, err)
	gt.A(t, all).Length(2)
	gt.Equal(t, all[0].ID, "doc_1")
	gt.Equal(t, all[0].Metadata["source"], "seed")

	results, err := reopened.Query(ctx, vectorindex.CollectionDocuments, []float32{1, 0, 0}, 1, nil)
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].ID, "doc_1")
	gt.S(t, results[0].Document).Contains("Gateway timeout")
}

func TestPersistentIndexAcceptsFurtherWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := vectorindex.NewChromemPersistent(dir)
	gt.NoError(t, err)
	gt.NoError(t, idx.Upsert(ctx, vectorindex.CollectionMemory, []vectorindex.Entry{
		{ID: "m1", Vector: []float32{1, 0}, Document: "first note", Metadata: map[string]string{"type": "episodic"}},
	}))

	reopened, err := vectorindex.NewChromemPersistent(dir)
	gt.NoError(t, err)
	gt.NoError(t, reopened.Upsert(ctx, vectorindex.CollectionMemory, []vectorindex.Entry{
		{ID: "m2", Vector: []float32{0, 1}, Document: "second note", Metadata: map[string]string{"type": "semantic"}},
	}))

	all, err := reopened.GetAll(ctx, vectorindex.CollectionMemory)
	gt.NoError(t, err)
	gt.A(t, all).Length(2)
	gt.Equal(t, all[0].ID, "m1")
	gt.Equal(t, all[1].ID, "m2")
}

func TestGetAllUnknownCollection(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()

	all, err := idx.GetAll(ctx, "missing")
	gt.NoError(t, err)
	gt.A(t, all).Length(0)
}
