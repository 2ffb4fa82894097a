package graph

import (
	"fmt"
	"maps"
	"slices"
)

const (
	// Start is the virtual node whose single outgoing edge names the entry node.
	Start = "__start__"
	// End is the virtual terminal node.
	End = "__end__"
)

type nodeSpec struct {
	name          string
	node          Node
	subgraph      *Graph
	destinations  []string
	parentTargets []string
}

// NodeOption configures a node added to a Builder.
type NodeOption func(*nodeSpec)

// Destinations declares the nodes a Command from this node may jump to in
// its own graph. A node without outgoing edges must declare them.
func Destinations(names ...string) NodeOption {
	return func(n *nodeSpec) {
		n.destinations = append(n.destinations, names...)
	}
}

// ParentDestinations declares the nodes a parent-scoped Command from this
// node may jump to. They are checked when the enclosing graph compiles.
func ParentDestinations(names ...string) NodeOption {
	return func(n *nodeSpec) {
		n.parentTargets = append(n.parentTargets, names...)
	}
}

type branch struct {
	router  Router
	mapping map[string]string
}

// Builder collects a graph declaration. Methods record problems instead of
// failing immediately; Compile reports all of them at once.
type Builder struct {
	name       string
	fields     []Field
	nodes      map[string]*nodeSpec
	order      []string
	edges      map[string][]string
	branches   map[string][]branch
	interrupts []string
	problems   []string
}

// NewBuilder starts a graph declaration with the given state fields.
func NewBuilder(name string, fields ...Field) *Builder {
	return &Builder{
		name:     name,
		fields:   fields,
		nodes:    make(map[string]*nodeSpec),
		edges:    make(map[string][]string),
		branches: make(map[string][]branch),
	}
}

func (b *Builder) problem(format string, args ...any) {
	b.problems = append(b.problems, fmt.Sprintf(format, args...))
}

// AddNode declares a node.
func (b *Builder) AddNode(name string, node Node, opts ...NodeOption) *Builder {
	if node == nil {
		b.problem("node %q is nil", name)
		return b
	}
	spec := &nodeSpec{name: name, node: node}
	for _, opt := range opts {
		opt(spec)
	}
	return b.add(spec)
}

// AddSubgraph declares a node that runs a compiled graph on the shared state.
// When the sub-graph reaches End, routing continues from this node's edges.
func (b *Builder) AddSubgraph(name string, sub *Graph, opts ...NodeOption) *Builder {
	if sub == nil {
		b.problem("sub-graph %q is nil", name)
		return b
	}
	spec := &nodeSpec{name: name, subgraph: sub}
	for _, opt := range opts {
		opt(spec)
	}
	return b.add(spec)
}

func (b *Builder) add(spec *nodeSpec) *Builder {
	switch {
	case spec.name == "":
		b.problem("node name cannot be empty")
	case spec.name == Start || spec.name == End:
		b.problem("node name %q is reserved", spec.name)
	default:
		if _, exists := b.nodes[spec.name]; exists {
			b.problem("node %q declared twice", spec.name)
			return b
		}
		b.nodes[spec.name] = spec
		b.order = append(b.order, spec.name)
	}
	return b
}

// AddEdge declares an unconditional transition. Use Start as from to set the
// entry node and End as to to finish the graph.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.edges[from] = append(b.edges[from], to)
	return b
}

// AddConditionalEdges routes from a node through router. Every label the
// router declares must be mapped to a node or End.
func (b *Builder) AddConditionalEdges(from string, router Router, mapping map[string]string) *Builder {
	b.branches[from] = append(b.branches[from], branch{router: router, mapping: maps.Clone(mapping)})
	return b
}

// InterruptBefore pauses a run before the named nodes execute.
func (b *Builder) InterruptBefore(names ...string) *Builder {
	b.interrupts = append(b.interrupts, names...)
	return b
}

// Compile validates the declaration and returns the immutable graph.
func (b *Builder) Compile() (*Graph, error) {
	problems := slices.Clone(b.problems)
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	known := func(name string) bool {
		_, ok := b.nodes[name]
		return ok
	}
	target := func(name string) bool {
		return name == End || known(name)
	}

	g := &Graph{
		name:       b.name,
		fields:     make(fieldSet),
		nodes:      make(map[string]*nodeSpec, len(b.nodes)),
		edges:      make(map[string]string),
		branches:   make(map[string]branch),
		interrupts: make(map[string]bool),
		order:      slices.Clone(b.order),
	}

	for _, f := range b.fields {
		if f.Name == "" {
			report("field name cannot be empty")
			continue
		}
		if _, dup := g.fields[f.Name]; dup {
			report("field %q declared twice", f.Name)
			continue
		}
		g.fields[f.Name] = f
	}

	entries := b.edges[Start]
	switch len(entries) {
	case 0:
		report("no entry edge from %s", Start)
	case 1:
		if !known(entries[0]) {
			report("entry edge targets undeclared node %q", entries[0])
		}
		g.entry = entries[0]
	default:
		report("%d entry edges from %s, want exactly one", len(entries), Start)
	}
	if len(b.branches[Start]) > 0 {
		report("conditional edges from %s are not supported", Start)
	}

	for _, from := range slices.Sorted(maps.Keys(b.edges)) {
		if from == Start {
			continue
		}
		if from == End {
			report("edge from %s", End)
			continue
		}
		if !known(from) {
			report("edge from undeclared node %q", from)
			continue
		}
		targets := b.edges[from]
		for _, to := range targets {
			if !target(to) {
				report("edge %s -> %s targets undeclared node", from, to)
			}
		}
		if len(targets) > 1 {
			report("node %q has %d outgoing edges, want at most one", from, len(targets))
		}
		g.edges[from] = targets[0]
	}

	for _, from := range slices.Sorted(maps.Keys(b.branches)) {
		if from == Start {
			continue
		}
		if !known(from) {
			report("conditional edges from undeclared node %q", from)
			continue
		}
		branches := b.branches[from]
		if len(branches) > 1 {
			report("node %q has %d conditional edge sets, want at most one", from, len(branches))
		}
		if _, static := b.edges[from]; static {
			report("node %q has both a static and a conditional edge", from)
		}

		br := branches[0]
		if err := br.router.validate(); err != nil {
			report("node %q: %v", from, err)
			continue
		}
		for _, label := range br.router.Labels {
			to, mapped := br.mapping[label]
			if !mapped {
				report("node %q: router %q label %q has no target", from, br.router.Name, label)
				continue
			}
			if !target(to) {
				report("node %q: router %q label %q targets undeclared node %q", from, br.router.Name, label, to)
			}
		}
		for _, label := range slices.Sorted(maps.Keys(br.mapping)) {
			if !br.router.hasLabel(label) {
				report("node %q: router %q has no label %q", from, br.router.Name, label)
			}
		}
		g.branches[from] = br
	}

	for _, name := range b.order {
		spec := b.nodes[name]
		for _, d := range spec.destinations {
			if !target(d) {
				report("node %q declares undeclared destination %q", name, d)
			}
		}
		_, hasEdge := b.edges[name]
		_, hasBranch := b.branches[name]
		jumps := len(spec.destinations) > 0 || len(spec.parentTargets) > 0 ||
			(spec.subgraph != nil && len(spec.subgraph.parentTargets) > 0)
		if !hasEdge && !hasBranch && !jumps {
			report("node %q has no outgoing edge and declares no destinations", name)
		}

		if sub := spec.subgraph; sub != nil {
			for _, t := range sub.parentTargets {
				if !target(t) {
					report("sub-graph %q jumps to undeclared node %q", name, t)
				}
			}
		}
		g.parentTargets = append(g.parentTargets, spec.parentTargets...)
		g.nodes[name] = spec
	}

	for _, name := range b.interrupts {
		if !known(name) {
			report("interrupt names undeclared node %q", name)
			continue
		}
		g.interrupts[name] = true
	}

	g.all = maps.Clone(g.fields)
	for _, name := range b.order {
		sub := b.nodes[name].subgraph
		if sub == nil {
			continue
		}
		for _, key := range slices.Sorted(maps.Keys(sub.all)) {
			f := sub.all[key]
			if existing, ok := g.all[key]; ok {
				if existing.Policy != f.Policy || existing.typ != f.typ {
					report("sub-graph %q declares field %q as %s %v, conflicting with %s %v",
						name, key, f.Policy, f.typ, existing.Policy, existing.typ)
				}
				continue
			}
			g.all[key] = f
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Graph: b.name, Problems: problems}
	}
	return g, nil
}

// Graph is a compiled, immutable graph declaration.
type Graph struct {
	name          string
	fields        fieldSet
	all           fieldSet
	nodes         map[string]*nodeSpec
	order         []string
	entry         string
	edges         map[string]string
	branches      map[string]branch
	interrupts    map[string]bool
	parentTargets []string
}

// Name returns the graph name.
func (g *Graph) Name() string {
	return g.name
}

// Entry returns the node the graph starts at.
func (g *Graph) Entry() string {
	return g.entry
}

// Nodes returns the node names in declaration order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.order)
}

// Fields returns the field declarations visible to runs of this graph,
// including those of nested sub-graphs, sorted by name.
func (g *Graph) Fields() []Field {
	out := make([]Field, 0, len(g.all))
	for _, key := range slices.Sorted(maps.Keys(g.all)) {
		out = append(out, g.all[key])
	}
	return out
}

// Interrupts reports whether the graph pauses before the named node.
func (g *Graph) Interrupts(name string) bool {
	return g.interrupts[name]
}

// Subgraph returns the compiled graph behind a sub-graph node.
func (g *Graph) Subgraph(name string) (*Graph, bool) {
	spec, ok := g.nodes[name]
	if !ok || spec.subgraph == nil {
		return nil, false
	}
	return spec.subgraph, true
}

func (g *Graph) has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// next resolves the declared transition out of a node.
func (g *Graph) next(from string, s State) (string, string, error) {
	if to, ok := g.edges[from]; ok {
		return to, "", nil
	}
	br, ok := g.branches[from]
	if !ok {
		return "", "", fmt.Errorf("%w %s", ErrNoTransition, from)
	}
	label, err := br.router.Route(s)
	if err != nil {
		return "", "", fmt.Errorf("router %s failed: %w", br.router.Name, err)
	}
	to, ok := br.mapping[label]
	if !ok {
		return "", label, fmt.Errorf("%w: router %s returned %q", ErrUnmappedRoute, br.router.Name, label)
	}
	return to, label, nil
}
