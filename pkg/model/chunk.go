package model

// DocumentChunk is a transient slice of an ingested document. Chunks live only
// in the vector index; there is no Record Store counterpart, so they cannot be
// recovered if the index is lost without re-running ingestion.
type DocumentChunk struct {
	Text     string
	Source   string
	Filename string
}
