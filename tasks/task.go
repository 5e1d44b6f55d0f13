package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Batch sizes. A delete call takes at most DeleteBatchSize ids; pages of ids
// are read RetrieveBatchSize at a time.
const (
	DeleteBatchSize   = 200
	RetrieveBatchSize = 500
)

// Kind names the work a Task does.
type Kind string

// Task kinds.
const (
	KindPurgeIndex    Kind = "purge_index"
	KindRemoveOrphans Kind = "remove_orphans"
	KindReindex       Kind = "reindex"
)

// ErrUnknownKind is returned for tasks of a kind no handler exists for.
var ErrUnknownKind = errors.New("unknown task kind")

// Task is one resumable unit of maintenance work on a model's index. Each
// run handles one page and defers the next.
type Task struct {
	Kind      Kind   `json:"kind"`
	Model     string `json:"model"`
	StartID   string `json:"start_id,omitempty"`
	BatchSize int    `json:"batch_size,omitempty"`
}

// Encode returns the JSON message for t.
func (t Task) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// Decode parses a task message.
func Decode(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	switch t.Kind {
	case KindPurgeIndex, KindRemoveOrphans, KindReindex:
	default:
		return Task{}, fmt.Errorf("decode task: %w: %q", ErrUnknownKind, t.Kind)
	}
	if t.Model == "" {
		return Task{}, errors.New("decode task: model is required")
	}
	return t, nil
}
