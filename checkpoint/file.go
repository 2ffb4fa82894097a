package checkpoint

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/agentgraph/graph"
)

// FileStore keeps each session in its own directory under root, one JSON
// file per checkpoint named by zero-padded sequence. Files are written to a
// temporary name and renamed into place.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore returns a FileStore rooted at root. The directory is created
// on first write.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Close is a no-op; FileStore holds no open handles.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) sessionDir(sessionID string) string {
	return filepath.Join(s.root, url.PathEscape(sessionID))
}

func fileName(seq int) string {
	return fmt.Sprintf("%010d.json", seq)
}

// Put writes cp as the next file of its session directory.
func (s *FileStore) Put(_ context.Context, cp graph.Checkpoint) error {
	if cp.SessionID == "" {
		return fmt.Errorf("%w: checkpoint has no session id", ErrSaveFailed)
	}

	data, err := marshalRecord(cp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.sessionDir(cp.SessionID)
	names, err := s.files(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if n := len(names); n > 0 && names[n-1] >= fileName(cp.Sequence) {
		return fmt.Errorf("%w: sequence %d for session %s is not after %s",
			ErrSaveFailed, cp.Sequence, cp.SessionID, strings.TrimSuffix(names[n-1], ".json"))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, cp.SessionID, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, cp.SessionID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, cp.SessionID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, cp.SessionID, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, fileName(cp.Sequence))); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, cp.SessionID, err)
	}
	return nil
}

func (s *FileStore) Latest(_ context.Context, sessionID string) (graph.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.sessionDir(sessionID)
	names, err := s.files(dir)
	if err != nil {
		return graph.Checkpoint{}, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	if len(names) == 0 {
		return graph.Checkpoint{}, fmt.Errorf("%w: %s", graph.ErrCheckpointNotFound, sessionID)
	}
	return s.read(filepath.Join(dir, names[len(names)-1]))
}

func (s *FileStore) History(_ context.Context, sessionID string) ([]graph.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.sessionDir(sessionID)
	names, err := s.files(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	out := make([]graph.Checkpoint, 0, len(names))
	for _, name := range names {
		cp, err := s.read(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *FileStore) Sessions(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		id, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return fmt.Errorf("delete failed: %s: %w", sessionID, err)
	}
	return nil
}

// files lists checkpoint files of a session directory in sequence order,
// skipping hidden temporaries.
func (s *FileStore) files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *FileStore) read(path string) (graph.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.Checkpoint{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
	}
	return unmarshalRecord(data)
}
