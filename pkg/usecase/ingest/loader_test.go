package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sarthi/pkg/adapter"
	"github.com/m-mizutani/sarthi/pkg/usecase/ingest"
	"github.com/m-mizutani/sarthi/pkg/vectorindex"
)

type mockEmbedder struct{}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int { return 3 }

var _ adapter.Embedder = &mockEmbedder{}

func TestIngestText(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()
	loader := ingest.New(&mockEmbedder{}, idx, nil)

	n, err := loader.IngestText(ctx, "runbooks", "gateway.md", "Gateway timeout errors occur under load. Restart the service.")
	gt.NoError(t, err)
	gt.Equal(t, n, 1)

	all, err := idx.GetAll(ctx, vectorindex.CollectionDocuments)
	gt.NoError(t, err)
	gt.A(t, all).Length(1)
	gt.Equal(t, all[0].Metadata["source"], "runbooks")
	gt.Equal(t, all[0].Metadata["filename"], "gateway.md")
}

func TestIngestTextMasksPII(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()
	loader := ingest.New(&mockEmbedder{}, idx, nil)

	n, err := loader.IngestText(ctx, "tickets", "t1.txt", "Reported by alice@example.com: gateway down")
	gt.NoError(t, err)
	gt.Equal(t, n, 1)

	all, err := idx.GetAll(ctx, vectorindex.CollectionDocuments)
	gt.NoError(t, err)
	gt.S(t, all[0].Document).Contains("[MASKED_EMAIL]")
	gt.S(t, all[0].Document).NotContains("alice@example.com")
}

func TestIngestTextEmpty(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()
	loader := ingest.New(&mockEmbedder{}, idx, nil)

	n, err := loader.IngestText(ctx, "empty", "e.txt", "   ")
	gt.NoError(t, err)
	gt.Equal(t, n, 0)
}

func TestLoadDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	gt.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("gateway timeout runbook"), 0o644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("database failure notes"), 0o644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte{0x00, 0x01}, 0o644))

	idx := vectorindex.NewChromem()
	loader := ingest.New(&mockEmbedder{}, idx, nil)

	gt.NoError(t, loader.LoadDir(ctx, dir))

	all, err := idx.GetAll(ctx, vectorindex.CollectionDocuments)
	gt.NoError(t, err)
	gt.A(t, all).Length(2)
}

func TestLoadDirMissing(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()
	loader := ingest.New(&mockEmbedder{}, idx, nil)

	// a missing directory is logged, not an error
	gt.NoError(t, loader.LoadDir(ctx, filepath.Join(t.TempDir(), "nope")))
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewChromem()
	loader := ingest.New(&mockEmbedder{}, idx, nil)

	n, err := loader.Seed(ctx)
	gt.NoError(t, err)
	gt.Equal(t, n, 5)

	all, err := idx.GetAll(ctx, vectorindex.CollectionDocuments)
	gt.NoError(t, err)
	gt.A(t, all).Length(5)
}
