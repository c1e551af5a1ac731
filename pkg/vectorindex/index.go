package vectorindex

import "context"

// Entry is one item to store in a collection. The vector is computed by the
// caller; the index never embeds on its own.
type Entry struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]string
}

// Result is one ranked hit from a similarity query or a full scan.
type Result struct {
	ID         string
	Document   string
	Metadata   map[string]string
	Similarity float32
}

// Index is the similarity-searchable store of embedded text, organized into
// named collections. Collection-level operations are individually atomic but
// there is no transaction across the index and the Record Store.
type Index interface {
	// Upsert stores entries into the named collection, replacing entries
	// with the same ID
	Upsert(ctx context.Context, collection string, entries []Entry) error

	// Query returns up to k entries ranked by similarity to the vector,
	// optionally filtered by metadata equality
	Query(ctx context.Context, collection string, vector []float32, k int, where map[string]string) ([]Result, error)

	// GetAll returns every entry of the collection in insertion order, for
	// fallback keyword scans
	GetAll(ctx context.Context, collection string) ([]Result, error)
}

// Collection names used by this system.
const (
	CollectionDocuments = "documents"
	CollectionMemory    = "memory"
)
