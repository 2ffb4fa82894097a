package graph

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the state of a run as recorded by its latest checkpoint.
type Status string

const (
	// StatusPending marks a run that will continue at Path when resumed,
	// either because it is still running or because its last step failed.
	StatusPending Status = "pending"
	// StatusInterrupted marks a run paused before the node at Path.
	StatusInterrupted Status = "interrupted"
	// StatusDone marks a finished run.
	StatusDone Status = "done"
)

// Checkpoint is one durable record of a session: the encoded state and the
// position of the next node to run. Path lists the current node of every
// open frame, outermost first; a finished run has Path [End].
type Checkpoint struct {
	SessionID string    `json:"session_id"`
	Sequence  int       `json:"sequence"`
	Path      []string  `json:"path"`
	Status    Status    `json:"status"`
	State     []byte    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Node returns the innermost pending node.
func (c Checkpoint) Node() string {
	if len(c.Path) == 0 {
		return ""
	}
	return c.Path[len(c.Path)-1]
}

// Terminal reports whether the checkpoint records a finished run.
func (c Checkpoint) Terminal() bool {
	return c.Status == StatusDone
}

func (c Checkpoint) clone() Checkpoint {
	c.Path = slices.Clone(c.Path)
	c.State = slices.Clone(c.State)
	return c
}

// CheckpointStore persists checkpoints. Records of a session are append-only
// and ordered by Sequence. Implementations must be safe for concurrent use.
type CheckpointStore interface {
	// Put appends a checkpoint to its session.
	Put(ctx context.Context, cp Checkpoint) error

	// Latest returns the checkpoint with the highest sequence, or
	// ErrCheckpointNotFound.
	Latest(ctx context.Context, sessionID string) (Checkpoint, error)

	// History returns every checkpoint of a session in sequence order.
	History(ctx context.Context, sessionID string) ([]Checkpoint, error)

	// Sessions returns the ids of all sessions with at least one checkpoint,
	// sorted.
	Sessions(ctx context.Context) ([]string, error)

	// Delete removes every checkpoint of a session. Deleting an unknown
	// session is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// NewSessionID returns a fresh, time-ordered session id.
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Checkpoint
}

// NewMemoryStore returns a CheckpointStore that lives in process memory.
func NewMemoryStore() CheckpointStore {
	return &memoryStore{sessions: make(map[string][]Checkpoint)}
}

func (m *memoryStore) Put(ctx context.Context, cp Checkpoint) error {
	if cp.SessionID == "" {
		return fmt.Errorf("checkpoint has no session id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.sessions[cp.SessionID]
	if n := len(history); n > 0 && history[n-1].Sequence >= cp.Sequence {
		return fmt.Errorf("checkpoint sequence %d for session %s is not after %d",
			cp.Sequence, cp.SessionID, history[n-1].Sequence)
	}
	m.sessions[cp.SessionID] = append(history, cp.clone())
	return nil
}

func (m *memoryStore) Latest(ctx context.Context, sessionID string) (Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.sessions[sessionID]
	if len(history) == 0 {
		return Checkpoint{}, fmt.Errorf("%w: %s", ErrCheckpointNotFound, sessionID)
	}
	return history[len(history)-1].clone(), nil
}

func (m *memoryStore) History(ctx context.Context, sessionID string) ([]Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.sessions[sessionID]
	out := make([]Checkpoint, len(history))
	for i, cp := range history {
		out[i] = cp.clone()
	}
	return out, nil
}

func (m *memoryStore) Sessions(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}
