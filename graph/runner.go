package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/observability"
)

const defaultMaxSteps = 1000

// NodeUpdate describes one committed step, as delivered to an UpdateHandler.
type NodeUpdate struct {
	SessionID string
	Path      []string
	Node      string
	Update    Update
	Goto      string
	State     State
}

// UpdateHandler receives every committed step of a run, in order.
type UpdateHandler func(ctx context.Context, u NodeUpdate)

// Run is the outcome of Start or Resume.
type Run struct {
	SessionID string
	Status    Status
	// Pending is the frame path of the node the run is paused before.
	Pending []string
	State   State
	Steps   int
}

// Interrupted reports whether the run paused at an interrupt point.
func (r *Run) Interrupted() bool {
	return r.Status == StatusInterrupted
}

// Snapshot is a decoded checkpoint.
type Snapshot struct {
	SessionID string
	Sequence  int
	Status    Status
	Path      []string
	State     State
	CreatedAt time.Time
}

// Next returns the innermost pending node, or End for a finished run.
func (s *Snapshot) Next() string {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore sets the checkpoint store. The default is an in-memory store.
func WithStore(store CheckpointStore) Option {
	return func(r *Runner) {
		if store != nil {
			r.store = store
		}
	}
}

// WithObserver sets the event observer.
func WithObserver(obs observability.Observer) Option {
	return func(r *Runner) {
		if obs != nil {
			r.observer = obs
		}
	}
}

// WithMaxSteps bounds the number of steps a single Start or Resume may take.
func WithMaxSteps(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// WithUpdateHandler streams committed steps to fn. Repeated options add
// handlers that run in order.
func WithUpdateHandler(fn UpdateHandler) Option {
	return func(r *Runner) {
		if fn == nil {
			return
		}
		prev := r.onUpdate
		if prev == nil {
			r.onUpdate = fn
			return
		}
		r.onUpdate = func(ctx context.Context, u NodeUpdate) {
			prev(ctx, u)
			fn(ctx, u)
		}
	}
}

// Runner executes a compiled graph for any number of sessions. Runs of the
// same session are serialized; runs of different sessions only share the
// store.
type Runner struct {
	graph    *Graph
	store    CheckpointStore
	observer observability.Observer
	maxSteps int
	onUpdate UpdateHandler

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRunner creates a Runner for g.
func NewRunner(g *Graph, opts ...Option) *Runner {
	r := &Runner{
		graph:    g,
		store:    NewMemoryStore(),
		observer: observability.NoOpObserver{},
		maxSteps: defaultMaxSteps,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRunnerFromConfig resolves the observer and step budget from cfg.
// Options are applied afterwards and take precedence.
func NewRunnerFromConfig(g *Graph, cfg config.GraphConfig, store CheckpointStore, opts ...Option) (*Runner, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	base := []Option{WithStore(store), WithObserver(observer), WithMaxSteps(cfg.MaxSteps)}
	return NewRunner(g, append(base, opts...)...), nil
}

// Graph returns the graph the runner executes.
func (r *Runner) Graph() *Graph {
	return r.graph
}

// Store returns the checkpoint store.
func (r *Runner) Store() CheckpointStore {
	return r.store
}

func (r *Runner) lock(sessionID string) func() {
	r.mu.Lock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (r *Runner) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	observability.Emit(ctx, r.observer, observability.Event{
		Type:   t,
		Level:  level,
		Source: r.graph.name,
		Data:   data,
	})
}

// Start begins a run for sessionID. A session whose previous run finished
// continues from that run's final state with input merged in; an unknown
// session starts from an empty state. A session with a paused or failed run
// returns ErrRunPending.
func (r *Runner) Start(ctx context.Context, sessionID string, input Update) (*Run, error) {
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	unlock := r.lock(sessionID)
	defer unlock()

	st := NewState()
	seq := 0

	latest, err := r.store.Latest(ctx, sessionID)
	switch {
	case errors.Is(err, ErrCheckpointNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	case !latest.Terminal():
		return nil, fmt.Errorf("%w: %s is %s at %s", ErrRunPending, sessionID, latest.Status, latest.Node())
	default:
		snap, err := r.decode(latest)
		if err != nil {
			return nil, err
		}
		st = snap.State
		seq = latest.Sequence
	}

	st.SessionID = sessionID
	st, err = r.graph.all.apply(st, input)
	if err != nil {
		return nil, err
	}

	frames := []frame{{graph: r.graph, node: r.graph.entry}}

	r.emit(ctx, EventGraphStart, observability.LevelInfo, map[string]any{
		"session_id": sessionID,
		"entry":      r.graph.entry,
		"continued":  seq > 0,
	})

	seq++
	if err := r.save(ctx, sessionID, seq, frames, StatusPending, st); err != nil {
		return nil, err
	}

	return r.run(ctx, sessionID, seq, frames, st, false)
}

// Resume continues the paused or failed run of sessionID after merging patch
// into its state. The pending node runs even if it is an interrupt point.
func (r *Runner) Resume(ctx context.Context, sessionID string, patch Update) (*Run, error) {
	unlock := r.lock(sessionID)
	defer unlock()

	latest, err := r.store.Latest(ctx, sessionID)
	if errors.Is(err, ErrCheckpointNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if latest.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrNoPendingRun, sessionID)
	}

	snap, err := r.decode(latest)
	if err != nil {
		return nil, err
	}

	r.emit(ctx, EventCheckpointLoad, observability.LevelInfo, map[string]any{
		"session_id": sessionID,
		"sequence":   latest.Sequence,
		"path":       snap.Path,
	})

	frames, err := r.restore(snap.Path)
	if err != nil {
		return nil, err
	}

	st, err := r.graph.all.apply(snap.State, patch)
	if err != nil {
		return nil, err
	}
	st.SessionID = sessionID

	r.emit(ctx, EventGraphResume, observability.LevelInfo, map[string]any{
		"session_id": sessionID,
		"node":       latest.Node(),
		"status":     string(latest.Status),
		"patched":    len(patch),
	})

	seq := latest.Sequence
	if len(patch) > 0 {
		seq++
		if err := r.save(ctx, sessionID, seq, frames, StatusPending, st); err != nil {
			return nil, err
		}
	}

	return r.run(ctx, sessionID, seq, frames, st, true)
}

// Snapshot returns the latest checkpoint of a session, decoded.
func (r *Runner) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	latest, err := r.store.Latest(ctx, sessionID)
	if errors.Is(err, ErrCheckpointNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return r.decode(latest)
}

// History returns every checkpoint of a session, decoded, oldest first.
func (r *Runner) History(ctx context.Context, sessionID string) ([]*Snapshot, error) {
	cps, err := r.store.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	out := make([]*Snapshot, 0, len(cps))
	for _, cp := range cps {
		snap, err := r.decode(cp)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// Sessions lists the sessions known to the store.
func (r *Runner) Sessions(ctx context.Context) ([]string, error) {
	return r.store.Sessions(ctx)
}

type frame struct {
	graph *Graph
	node  string
}

func pathOf(frames []frame) []string {
	path := make([]string, len(frames))
	for i, f := range frames {
		path[i] = f.node
	}
	return path
}

func (r *Runner) restore(path []string) ([]frame, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("checkpoint has an empty path")
	}

	frames := make([]frame, 0, len(path))
	g := r.graph
	for i, name := range path {
		if !g.has(name) {
			return nil, fmt.Errorf("checkpoint path %s does not match graph %s: %w",
				strings.Join(path, "/"), r.graph.name, ErrUnknownNode)
		}
		frames = append(frames, frame{graph: g, node: name})
		if i < len(path)-1 {
			sub, ok := g.Subgraph(name)
			if !ok {
				return nil, fmt.Errorf("checkpoint path %s: %s is not a sub-graph", strings.Join(path, "/"), name)
			}
			g = sub
		}
	}
	return frames, nil
}

func (r *Runner) decode(cp Checkpoint) (*Snapshot, error) {
	data, err := r.graph.all.decode(cp.State)
	if err != nil {
		return nil, fmt.Errorf("session %s sequence %d: %w", cp.SessionID, cp.Sequence, err)
	}
	return &Snapshot{
		SessionID: cp.SessionID,
		Sequence:  cp.Sequence,
		Status:    cp.Status,
		Path:      slices.Clone(cp.Path),
		State: State{
			Data:      data,
			SessionID: cp.SessionID,
			Node:      cp.Node(),
			Timestamp: cp.CreatedAt,
		},
		CreatedAt: cp.CreatedAt,
	}, nil
}

func (r *Runner) save(ctx context.Context, sessionID string, seq int, frames []frame, status Status, st State) error {
	encoded, err := r.graph.all.encode(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	path := pathOf(frames)
	if status == StatusDone {
		path = []string{End}
	}

	cp := Checkpoint{
		SessionID: sessionID,
		Sequence:  seq,
		Path:      path,
		Status:    status,
		State:     encoded,
		CreatedAt: time.Now(),
	}
	if err := r.store.Put(ctx, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	r.emit(ctx, EventCheckpointSave, observability.LevelVerbose, map[string]any{
		"session_id": sessionID,
		"sequence":   seq,
		"path":       strings.Join(path, "/"),
		"status":     string(status),
	})
	return nil
}

func (r *Runner) fail(ctx context.Context, frames []frame, st State, err error) error {
	node := frames[len(frames)-1].node
	r.emit(ctx, EventGraphError, observability.LevelError, map[string]any{
		"session_id": st.SessionID,
		"node":       node,
		"error":      err.Error(),
	})
	return &ExecutionError{
		Node:  node,
		Path:  pathOf(frames),
		State: st,
		Err:   err,
	}
}

// run drives the step loop. The store always holds a checkpoint pointing at
// frames when run is called; each committed step appends one more.
func (r *Runner) run(ctx context.Context, sessionID string, seq int, frames []frame, st State, resumed bool) (*Run, error) {
	skipInterrupt := resumed
	steps := 0
	visited := make(map[string]int)

	for {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(ctx, frames, st, fmt.Errorf("execution cancelled: %w", err))
		}

		top := frames[len(frames)-1]
		g, name := top.graph, top.node
		spec := g.nodes[name]

		if g.interrupts[name] && !skipInterrupt {
			seq++
			if err := r.save(ctx, sessionID, seq, frames, StatusInterrupted, st); err != nil {
				return nil, r.fail(ctx, frames, st, err)
			}
			r.emit(ctx, EventGraphInterrupt, observability.LevelInfo, map[string]any{
				"session_id": sessionID,
				"node":       name,
				"path":       strings.Join(pathOf(frames), "/"),
			})
			return &Run{
				SessionID: sessionID,
				Status:    StatusInterrupted,
				Pending:   pathOf(frames),
				State:     st,
				Steps:     steps,
			}, nil
		}
		skipInterrupt = false

		steps++
		if steps > r.maxSteps {
			return nil, r.fail(ctx, frames, st, fmt.Errorf("%w (%d)", ErrMaxSteps, r.maxSteps))
		}

		key := strings.Join(pathOf(frames), "/")
		visited[key]++
		if visited[key] > 1 {
			r.emit(ctx, EventCycleDetect, observability.LevelVerbose, map[string]any{
				"node":        key,
				"visit_count": visited[key],
				"step":        steps,
			})
		}

		if spec.subgraph != nil {
			r.emit(ctx, EventSubgraphEnter, observability.LevelVerbose, map[string]any{
				"node":  name,
				"graph": spec.subgraph.name,
				"depth": len(frames),
			})
			frames = append(frames, frame{graph: spec.subgraph, node: spec.subgraph.entry})
			continue
		}

		r.emit(ctx, EventNodeStart, observability.LevelVerbose, map[string]any{
			"node": key,
			"step": steps,
		})

		in := st.Clone()
		in.SessionID = sessionID
		in.Node = name
		result, err := spec.node.Execute(ctx, in)

		r.emit(ctx, EventNodeComplete, observability.LevelVerbose, map[string]any{
			"node":  key,
			"step":  steps,
			"error": err != nil,
		})

		if err != nil {
			return nil, r.fail(ctx, frames, st, fmt.Errorf("node execution failed: %w", err))
		}

		update, cmd := split(result)
		next, err := r.graph.all.apply(st, update)
		if err != nil {
			return nil, r.fail(ctx, frames, st, err)
		}

		advanced, err := r.advance(ctx, frames, next, cmd)
		if err != nil {
			return nil, r.fail(ctx, frames, st, err)
		}

		done := len(advanced) == 1 && advanced[0].node == End
		status := StatusPending
		if done {
			status = StatusDone
		}

		seq++
		if err := r.save(ctx, sessionID, seq, advanced, status, next); err != nil {
			return nil, r.fail(ctx, frames, st, err)
		}

		ran := pathOf(frames)
		frames, st = advanced, next

		goTo := ""
		if cmd != nil {
			goTo = cmd.Goto
		}
		r.emit(ctx, EventNodeUpdate, observability.LevelVerbose, map[string]any{
			"node": key,
			"keys": len(update),
			"goto": goTo,
		})
		if r.onUpdate != nil {
			r.onUpdate(ctx, NodeUpdate{
				SessionID: sessionID,
				Path:      ran,
				Node:      name,
				Update:    update,
				Goto:      goTo,
				State:     st,
			})
		}

		if done {
			r.emit(ctx, EventGraphComplete, observability.LevelInfo, map[string]any{
				"session_id": sessionID,
				"steps":      steps,
			})
			return &Run{
				SessionID: sessionID,
				Status:    StatusDone,
				Pending:   nil,
				State:     st,
				Steps:     steps,
			}, nil
		}
	}
}

// advance computes the frames after the node on top of frames has produced
// st and cmd. Frames whose graph reaches End are popped and routing resumes
// from the parent's sub-graph node.
func (r *Runner) advance(ctx context.Context, frames []frame, st State, cmd *Command) ([]frame, error) {
	frames = slices.Clone(frames)
	top := len(frames) - 1

	var target string
	switch {
	case cmd != nil && cmd.Graph == ScopeParent:
		if top == 0 {
			return nil, fmt.Errorf("%w: goto %q", ErrNoParentGraph, cmd.Goto)
		}
		r.emit(ctx, EventSubgraphExit, observability.LevelVerbose, map[string]any{
			"graph": frames[top].graph.name,
			"goto":  cmd.Goto,
		})
		frames = frames[:top]
		top--
		if cmd.Goto == "" {
			next, err := r.route(ctx, frames[top], st)
			if err != nil {
				return nil, err
			}
			target = next
		} else {
			target = cmd.Goto
		}

	case cmd != nil && cmd.Goto != "":
		target = cmd.Goto

	default:
		next, err := r.route(ctx, frames[top], st)
		if err != nil {
			return nil, err
		}
		target = next
	}

	for {
		g := frames[top].graph
		if target != End && !g.has(target) {
			return nil, fmt.Errorf("%w: %s in graph %s", ErrUnknownNode, target, g.name)
		}
		frames[top].node = target

		if target != End || top == 0 {
			return frames, nil
		}

		r.emit(ctx, EventSubgraphExit, observability.LevelVerbose, map[string]any{
			"graph": g.name,
		})
		frames = frames[:top]
		top--

		next, err := r.route(ctx, frames[top], st)
		if err != nil {
			return nil, err
		}
		target = next
	}
}

func (r *Runner) route(ctx context.Context, f frame, st State) (string, error) {
	to, label, err := f.graph.next(f.node, st)
	if err != nil {
		return "", err
	}
	data := map[string]any{"from": f.node, "to": to}
	if label != "" {
		data["label"] = label
	}
	r.emit(ctx, EventEdgeRoute, observability.LevelVerbose, data)
	return to, nil
}
