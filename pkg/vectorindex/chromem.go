package vectorindex

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	chromem "github.com/philippgille/chromem-go"
)

// catalogFileName is the entry catalog kept next to the chromem collection
// directories. chromem-go persists vectors per document but has no document
// enumeration API, so the catalog records ID, text and metadata of every
// upserted entry to serve GetAll across process restarts.
const catalogFileName = "catalog.json"

// Chromem implements Index on top of chromem-go, a pure Go embedded vector
// database. An in-process mirror of upserted entries serves GetAll; with a
// persistence path the mirror is saved as a catalog file and restored on open.
// The index is a derived cache: memory entries are rebuildable from the Record
// Store, document entries only by re-running ingestion.
type Chromem struct {
	db          *chromem.DB
	path        string
	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	mirror      map[string][]Entry
	byID        map[string]map[string]int
}

// NewChromem creates an in-memory chromem-backed index.
func NewChromem() *Chromem {
	return &Chromem{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		mirror:      make(map[string][]Entry),
		byID:        make(map[string]map[string]int),
	}
}

// NewChromemPersistent creates a chromem-backed index stored under path.
// Collections and vectors written by earlier processes are reloaded, so
// ingested documents survive across invocations.
func NewChromemPersistent(path string) (*Chromem, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open vector index", goerr.V("path", path))
	}

	x := &Chromem{
		db:          db,
		path:        path,
		collections: make(map[string]*chromem.Collection),
		mirror:      make(map[string][]Entry),
		byID:        make(map[string]map[string]int),
	}
	if err := x.loadCatalog(); err != nil {
		return nil, err
	}

	return x, nil
}

// catalogEntry is the persisted form of a mirror entry. Vectors are omitted;
// chromem persists those itself.
type catalogEntry struct {
	ID       string            `json:"id"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (x *Chromem) catalogPath() string {
	return filepath.Join(x.path, catalogFileName)
}

func (x *Chromem) loadCatalog() error {
	data, err := os.ReadFile(x.catalogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return goerr.Wrap(err, "failed to read index catalog", goerr.V("path", x.catalogPath()))
	}

	var catalog map[string][]catalogEntry
	if err := json.Unmarshal(data, &catalog); err != nil {
		return goerr.Wrap(err, "failed to parse index catalog", goerr.V("path", x.catalogPath()))
	}

	for name, entries := range catalog {
		x.byID[name] = make(map[string]int, len(entries))
		for _, e := range entries {
			x.byID[name][e.ID] = len(x.mirror[name])
			x.mirror[name] = append(x.mirror[name], Entry{
				ID:       e.ID,
				Document: e.Document,
				Metadata: e.Metadata,
			})
		}
	}

	return nil
}

// saveCatalog writes the mirror to disk. Caller must hold x.mu.
func (x *Chromem) saveCatalog() error {
	catalog := make(map[string][]catalogEntry, len(x.mirror))
	for name, entries := range x.mirror {
		ces := make([]catalogEntry, 0, len(entries))
		for _, e := range entries {
			ces = append(ces, catalogEntry{
				ID:       e.ID,
				Document: e.Document,
				Metadata: e.Metadata,
			})
		}
		catalog[name] = ces
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		return goerr.Wrap(err, "failed to encode index catalog")
	}

	tmp := x.catalogPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write index catalog", goerr.V("path", tmp))
	}
	if err := os.Rename(tmp, x.catalogPath()); err != nil {
		return goerr.Wrap(err, "failed to replace index catalog", goerr.V("path", x.catalogPath()))
	}

	return nil
}

func (x *Chromem) getOrCreateCollection(name string) (*chromem.Collection, error) {
	x.mu.RLock()
	col, ok := x.collections[name]
	x.mu.RUnlock()
	if ok {
		return col, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if col, ok := x.collections[name]; ok {
		return col, nil
	}

	col, err := x.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create collection", goerr.V("collection", name))
	}
	x.collections[name] = col
	if x.byID[name] == nil {
		x.byID[name] = make(map[string]int)
	}

	return col, nil
}

func (x *Chromem) Upsert(ctx context.Context, collection string, entries []Entry) error {
	col, err := x.getOrCreateCollection(collection)
	if err != nil {
		return err
	}

	for _, e := range entries {
		doc := chromem.Document{
			ID:        e.ID,
			Content:   e.Document,
			Embedding: e.Vector,
			Metadata:  e.Metadata,
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return goerr.Wrap(err, "failed to add document", goerr.V("collection", collection), goerr.V("id", e.ID))
		}

		x.mu.Lock()
		if i, ok := x.byID[collection][e.ID]; ok {
			x.mirror[collection][i] = e
		} else {
			x.byID[collection][e.ID] = len(x.mirror[collection])
			x.mirror[collection] = append(x.mirror[collection], e)
		}
		x.mu.Unlock()
	}

	if x.path != "" {
		x.mu.Lock()
		err := x.saveCatalog()
		x.mu.Unlock()
		if err != nil {
			return err
		}
	}

	return nil
}

func (x *Chromem) Query(ctx context.Context, collection string, vector []float32, k int, where map[string]string) ([]Result, error) {
	col, err := x.getOrCreateCollection(collection)
	if err != nil {
		return nil, err
	}

	// chromem-go rejects nResults larger than the collection, so shrink the
	// limit until the query fits
	var hits []chromem.Result
	for limit := k; limit >= 1; limit-- {
		hits, err = col.QueryEmbedding(ctx, vector, limit, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if limit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, goerr.Wrap(err, "failed to query collection", goerr.V("collection", collection))
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			ID:         h.ID,
			Document:   h.Content,
			Metadata:   h.Metadata,
			Similarity: h.Similarity,
		})
	}

	return results, nil
}

func (x *Chromem) GetAll(ctx context.Context, collection string) ([]Result, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entries := x.mirror[collection]
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, Result{
			ID:       e.ID,
			Document: e.Document,
			Metadata: e.Metadata,
		})
	}

	return results, nil
}

// isInsufficientDocsError matches chromem's error for nResults exceeding the
// number of stored documents.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
