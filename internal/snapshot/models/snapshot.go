package models

import (
	"encoding/json"
	"time"
)

// Snapshot is the full registry state as of Height. Restoring it and replaying
// log entries above Height reproduces the live state.
type Snapshot struct {
	Height  uint64          `json:"height"`
	TakenAt time.Time       `json:"taken_at"`
	State   json.RawMessage `json:"state"`
}
