// Package graphtest holds shared tests for graph.CheckpointStore
// implementations.
package graphtest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/agentgraph/graph"
)

// Checkpoint builds a checkpoint for tests.
func Checkpoint(session string, seq int, status graph.Status, path ...string) graph.Checkpoint {
	return graph.Checkpoint{
		SessionID: session,
		Sequence:  seq,
		Path:      path,
		Status:    status,
		State:     []byte(fmt.Sprintf(`{"seq":%d}`, seq)),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// RunStoreTests exercises the CheckpointStore contract against stores
// created by newStore. Each subtest gets a fresh store.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) graph.CheckpointStore) {
	ctx := context.Background()

	t.Run("latest of unknown session", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Latest(ctx, "missing")
		if !errors.Is(err, graph.ErrCheckpointNotFound) {
			t.Errorf("Latest error = %v, want ErrCheckpointNotFound", err)
		}
	})

	t.Run("put then latest", func(t *testing.T) {
		store := newStore(t)
		first := Checkpoint("s1", 1, graph.StatusPending, "a")
		second := Checkpoint("s1", 2, graph.StatusInterrupted, "sub", "b")

		for _, cp := range []graph.Checkpoint{first, second} {
			if err := store.Put(ctx, cp); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		got, err := store.Latest(ctx, "s1")
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if got.Sequence != 2 || got.Status != graph.StatusInterrupted {
			t.Errorf("latest = seq %d status %s, want seq 2 interrupted", got.Sequence, got.Status)
		}
		if !slices.Equal(got.Path, []string{"sub", "b"}) {
			t.Errorf("path = %v, want [sub b]", got.Path)
		}
		if string(got.State) != string(second.State) {
			t.Errorf("state = %s, want %s", got.State, second.State)
		}
		if !got.CreatedAt.Equal(second.CreatedAt) {
			t.Errorf("created at = %v, want %v", got.CreatedAt, second.CreatedAt)
		}
	})

	t.Run("history is ordered", func(t *testing.T) {
		store := newStore(t)
		for seq := 1; seq <= 4; seq++ {
			if err := store.Put(ctx, Checkpoint("s1", seq, graph.StatusPending, "n")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		history, err := store.History(ctx, "s1")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 4 {
			t.Fatalf("history has %d entries, want 4", len(history))
		}
		for i, cp := range history {
			if cp.Sequence != i+1 {
				t.Errorf("history[%d].Sequence = %d, want %d", i, cp.Sequence, i+1)
			}
		}

		empty, err := store.History(ctx, "other")
		if err != nil || len(empty) != 0 {
			t.Errorf("History(other) = %v, %v; want empty", empty, err)
		}
	})

	t.Run("sessions and delete", func(t *testing.T) {
		store := newStore(t)
		for _, id := range []string{"b", "a", "c"} {
			if err := store.Put(ctx, Checkpoint(id, 1, graph.StatusDone, graph.End)); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		ids, err := store.Sessions(ctx)
		if err != nil {
			t.Fatalf("Sessions failed: %v", err)
		}
		if !slices.Equal(ids, []string{"a", "b", "c"}) {
			t.Errorf("sessions = %v, want [a b c]", ids)
		}

		if err := store.Delete(ctx, "b"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(ctx, "never"); err != nil {
			t.Errorf("Delete of unknown session failed: %v", err)
		}
		if _, err := store.Latest(ctx, "b"); !errors.Is(err, graph.ErrCheckpointNotFound) {
			t.Errorf("Latest after delete error = %v, want ErrCheckpointNotFound", err)
		}

		ids, _ = store.Sessions(ctx)
		if !slices.Equal(ids, []string{"a", "c"}) {
			t.Errorf("sessions after delete = %v, want [a c]", ids)
		}
	})

	t.Run("stored values are isolated", func(t *testing.T) {
		store := newStore(t)
		cp := Checkpoint("s1", 1, graph.StatusPending, "a")
		if err := store.Put(ctx, cp); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		cp.Path[0] = "mutated"
		cp.State[0] = 'X'

		got, err := store.Latest(ctx, "s1")
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if got.Path[0] != "a" || got.State[0] != '{' {
			t.Errorf("store kept a reference to caller data: %+v", got)
		}
	})

	t.Run("concurrent sessions", func(t *testing.T) {
		store := newStore(t)
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := range 8 {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				for seq := 1; seq <= 5; seq++ {
					if err := store.Put(ctx, Checkpoint(id, seq, graph.StatusPending, "n")); err != nil {
						errs <- err
						return
					}
				}
			}(fmt.Sprintf("session-%d", i))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent Put failed: %v", err)
		}

		ids, err := store.Sessions(ctx)
		if err != nil {
			t.Fatalf("Sessions failed: %v", err)
		}
		if len(ids) != 8 {
			t.Errorf("got %d sessions, want 8", len(ids))
		}
		for _, id := range ids {
			latest, err := store.Latest(ctx, id)
			if err != nil || latest.Sequence != 5 {
				t.Errorf("Latest(%s) = seq %d, %v; want 5", id, latest.Sequence, err)
			}
		}
	})

	t.Run("racing writers of one session", func(t *testing.T) {
		store := newStore(t)
		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := range 8 {
			wg.Add(1)
			go func(node string) {
				defer wg.Done()
				if err := store.Put(ctx, Checkpoint("shared", 1, graph.StatusPending, node)); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}(fmt.Sprintf("n%d", i))
		}
		wg.Wait()

		if ok != 1 {
			t.Errorf("%d writers stored sequence 1, want exactly one", ok)
		}
		history, err := store.History(ctx, "shared")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 1 {
			t.Errorf("history has %d checkpoints, want 1", len(history))
		}
	})
}
