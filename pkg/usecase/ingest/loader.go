// Package ingest produces document chunks and loads them into the vector
// index's documents collection. Documents have no Record Store counterpart:
// re-running ingestion is the only way to rebuild the collection.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/adapter"
	"github.com/m-mizutani/sarthi/pkg/guardrail"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/repository"
	"github.com/m-mizutani/sarthi/pkg/utils/logging"
	"github.com/m-mizutani/sarthi/pkg/vectorindex"
)

var textExtensions = map[string]struct{}{
	".txt":  {},
	".md":   {},
	".json": {},
	".csv":  {},
}

// Loader ingests raw text into the documents collection.
type Loader struct {
	embedder adapter.Embedder
	index    vectorindex.Index
	repo     repository.Repository
}

func New(embedder adapter.Embedder, index vectorindex.Index, repo repository.Repository) *Loader {
	return &Loader{
		embedder: embedder,
		index:    index,
		repo:     repo,
	}
}

// IngestText masks PII in the text, chunks it, embeds the chunks and upserts
// them into the documents collection. Returns the number of chunks indexed.
func (l *Loader) IngestText(ctx context.Context, source, filename, text string) (int, error) {
	masked := guardrail.MaskPII(text)

	var chunks []model.DocumentChunk
	for _, piece := range ChunkText(masked, DefaultChunkSize) {
		chunks = append(chunks, model.DocumentChunk{
			Text:     piece,
			Source:   source,
			Filename: filename,
		})
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	vectors, err := l.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to embed chunks", goerr.V("source", source))
	}

	entries := make([]vectorindex.Entry, 0, len(chunks))
	for i, chunk := range chunks {
		entries = append(entries, vectorindex.Entry{
			ID:       "doc_" + uuid.New().String(),
			Vector:   vectors[i],
			Document: chunk.Text,
			Metadata: map[string]string{
				"source":   chunk.Source,
				"filename": chunk.Filename,
			},
		})
	}

	if err := l.index.Upsert(ctx, vectorindex.CollectionDocuments, entries); err != nil {
		return 0, goerr.Wrap(err, "failed to store chunks", goerr.V("source", source))
	}

	return len(entries), nil
}

// LoadDir walks a directory and ingests every text-like file. Per-file
// failures are logged as data_loader events and skipped.
func (l *Loader) LoadDir(ctx context.Context, dir string) error {
	logger := logging.From(ctx)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		l.logEvent(ctx, "data directory not found: "+dir)
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := textExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			l.logEvent(ctx, "failed to read "+path+": "+err.Error())
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		n, err := l.IngestText(ctx, rel, filepath.Base(path), string(data))
		if err != nil {
			l.logEvent(ctx, "failed to ingest "+path+": "+err.Error())
			return nil
		}

		logger.Info("loaded document", "file", rel, "chunks", n)
		l.logEvent(ctx, "loaded "+filepath.Base(path))
		return nil
	})
}

// seedDocuments are sample incident runbook snippets for bootstrapping a
// fresh index.
var seedDocuments = []string{
	"Gateway timeout errors typically occur when the service is overloaded. Resolution: Restart the gateway service and monitor load.",
	"Database connection failures happen due to network issues or credential problems. Check network connectivity and verify credentials.",
	"Authentication failures occur when tokens expire or are invalid. Users should re-authenticate and check token validity.",
	"Memory leaks in application servers cause performance degradation. Monitor heap usage and restart services as needed.",
	"SSL certificate expiration causes connection errors. Renew certificates before expiration and update configurations.",
}

// Seed loads the built-in sample documents.
func (l *Loader) Seed(ctx context.Context) (int, error) {
	total := 0
	for _, doc := range seedDocuments {
		n, err := l.IngestText(ctx, "seed", "seed", doc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (l *Loader) logEvent(ctx context.Context, message string) {
	if l.repo == nil {
		return
	}
	ev := &model.Event{
		EventType: model.EventDataLoader,
		AgentName: "DataLoader",
		Message:   message,
		Timestamp: time.Now(),
	}
	if err := l.repo.PutEvent(ctx, ev); err != nil {
		logging.From(ctx).Warn("failed to log data loader event", "error", err)
	}
}
