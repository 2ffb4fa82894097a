// Package session runs chat threads over a message graph, such as the
// chatbot agent, for interactive front-ends.
//
// Each thread is a graph session: its history lives in the checkpoint store,
// so threads survive restarts when the store is persistent.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrInterrupted is returned by Send when the turn paused instead of
	// producing an answer.
	ErrInterrupted = errors.New("turn paused before an answer")
)

// ToolFunc is told the name of each tool the model decides to call.
type ToolFunc func(name string)

// Service runs chat turns on threads of one graph.
type Service struct {
	runner *graph.Runner

	mu      sync.Mutex
	created []string
	onTool  map[string]ToolFunc
}

// New builds a Service over g. The graph must declare prebuilt.MessagesField.
// Options are passed to the underlying graph.Runner.
func New(g *graph.Graph, opts ...graph.Option) *Service {
	s := &Service{onTool: make(map[string]ToolFunc)}
	opts = append(opts, graph.WithUpdateHandler(s.notify))
	s.runner = graph.NewRunner(g, opts...)
	return s
}

// Runner returns the underlying runner.
func (s *Service) Runner() *graph.Runner {
	return s.runner
}

// NewThread returns a fresh thread id. The thread is listed by Threads
// before its first message.
func (s *Service) NewThread() string {
	id := uuid.Must(uuid.NewV7()).String()
	s.mu.Lock()
	s.created = append(s.created, id)
	s.mu.Unlock()
	return id
}

// Threads lists the stored threads followed by threads created in this
// process that have no messages yet.
func (s *Service) Threads(ctx context.Context) ([]string, error) {
	stored, err := s.runner.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	threads := slices.Clone(stored)
	for _, id := range s.created {
		if !slices.Contains(threads, id) {
			threads = append(threads, id)
		}
	}
	return threads, nil
}

// Conversation returns the messages of a thread. Unknown threads are empty.
func (s *Service) Conversation(ctx context.Context, threadID string) ([]protocol.Message, error) {
	snap, err := s.runner.Snapshot(ctx, threadID)
	if errors.Is(err, graph.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prebuilt.Messages(snap.State), nil
}

// Send runs one turn on a thread and returns the assistant's answer. onTool,
// when set, is told about every tool call made during the turn.
func (s *Service) Send(ctx context.Context, threadID, text string, onTool ToolFunc) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}

	if onTool != nil {
		s.mu.Lock()
		s.onTool[threadID] = onTool
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.onTool, threadID)
			s.mu.Unlock()
		}()
	}

	input := prebuilt.UserInput(text)
	run, err := s.runner.Start(ctx, threadID, input)
	if errors.Is(err, graph.ErrRunPending) {
		run, err = s.recover(ctx, threadID, input)
	}
	if err != nil {
		return "", err
	}
	if run.Interrupted() {
		return "", fmt.Errorf("%w: %s", ErrInterrupted, strings.Join(run.Pending, "/"))
	}

	reply, _ := prebuilt.LastAssistant(prebuilt.Messages(run.State))
	return reply.Content, nil
}

// recover continues a thread whose previous turn failed. A turn that failed
// at the entry node is resumed with the new input; one that failed later is
// first finished so the new message follows a complete exchange. Paused
// turns are left alone.
func (s *Service) recover(ctx context.Context, threadID string, input graph.Update) (*graph.Run, error) {
	snap, err := s.runner.Snapshot(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if snap.Status != graph.StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInterrupted, strings.Join(snap.Path, "/"))
	}

	if len(snap.Path) == 1 && snap.Path[0] == s.runner.Graph().Entry() {
		return s.runner.Resume(ctx, threadID, input)
	}
	if _, err := s.runner.Resume(ctx, threadID, nil); err != nil {
		return nil, err
	}
	return s.runner.Start(ctx, threadID, input)
}

func (s *Service) notify(_ context.Context, u graph.NodeUpdate) {
	s.mu.Lock()
	fn := s.onTool[u.SessionID]
	s.mu.Unlock()
	if fn == nil {
		return
	}

	added, _ := u.Update[prebuilt.MessagesKey].([]protocol.Message)
	for _, m := range added {
		for _, call := range m.ToolCalls {
			fn(call.Name)
		}
	}
}
