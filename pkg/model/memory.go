package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var ErrInvalidMemoryType = goerr.New("invalid memory type")

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

type MemoryType string

const (
	MemoryTypeEpisodic     MemoryType = "episodic"
	MemoryTypeSemantic     MemoryType = "semantic"
	MemoryTypeConversation MemoryType = "conversation"
	MemoryTypeWorking      MemoryType = "working"
)

// Validate checks if the memory type is valid
func (t MemoryType) Validate() error {
	switch t {
	case MemoryTypeEpisodic, MemoryTypeSemantic, MemoryTypeConversation, MemoryTypeWorking:
		return nil
	default:
		return goerr.Wrap(ErrInvalidMemoryType, "unknown type", goerr.V("type", t))
	}
}

// Memory is a stored memory item. The Record Store row is authoritative; the
// vector index holds a derived projection that may legitimately be absent
// when embedding failed at write time.
type Memory struct {
	ID        MemoryID
	Type      MemoryType
	Content   string
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool
}
