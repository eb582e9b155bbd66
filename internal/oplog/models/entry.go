package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one committed operation in the replicated log.
//
// Invariants:
//   - Height starts at 1 and is contiguous
//   - Payload decodes to the operation named by Kind
type Entry struct {
	Height    uint64          `json:"height"`
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	AppliedAt time.Time       `json:"applied_at"`
}

// NewEntry builds the entry for the operation that will land at height.
func NewEntry(height uint64, kind string, payload json.RawMessage, appliedAt time.Time) *Entry {
	return &Entry{
		Height:    height,
		ID:        uuid.New(),
		Kind:      kind,
		Payload:   payload,
		AppliedAt: appliedAt.UTC(),
	}
}
