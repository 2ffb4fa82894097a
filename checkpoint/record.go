package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tailored-agentic-units/agentgraph/graph"
)

// record is the serialized form shared by the file and Redis stores. The
// state is kept as raw JSON so stored checkpoints stay readable.
type record struct {
	SessionID string          `json:"session_id"`
	Sequence  int             `json:"sequence"`
	Path      []string        `json:"path"`
	Status    graph.Status    `json:"status"`
	State     json.RawMessage `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

func marshalRecord(cp graph.Checkpoint) ([]byte, error) {
	state := json.RawMessage(cp.State)
	if len(state) == 0 {
		state = json.RawMessage("{}")
	}
	return sonic.Marshal(record{
		SessionID: cp.SessionID,
		Sequence:  cp.Sequence,
		Path:      cp.Path,
		Status:    cp.Status,
		State:     state,
		CreatedAt: cp.CreatedAt,
	})
}

func unmarshalRecord(data []byte) (graph.Checkpoint, error) {
	var r record
	if err := sonic.Unmarshal(data, &r); err != nil {
		return graph.Checkpoint{}, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return graph.Checkpoint{
		SessionID: r.SessionID,
		Sequence:  r.Sequence,
		Path:      r.Path,
		Status:    r.Status,
		State:     []byte(r.State),
		CreatedAt: r.CreatedAt,
	}, nil
}
