package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

var (
	ErrToolExists     = errors.New("tool already registered")
	ErrResourceExists = errors.New("resource already registered")
	ErrUnknownTool    = errors.New("unknown tool")
	ErrUnknownURI     = errors.New("unknown resource")
)

// Tool describes a callable tool. InputSchema is a JSON schema object.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Content is one block of a tool result. Only text blocks are produced.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the outcome of tools/call.
type CallResult struct {
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError"`
}

// Text joins the text blocks of the result.
func (r CallResult) Text() string {
	var parts []string
	for _, c := range r.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Handler runs a tool. The returned value becomes the structured content of
// the result; strings are returned as plain text. A returned error is
// reported to the caller as an error result, not a protocol error.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Resource describes a readable resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents is the body of a read resource.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// ReadFunc returns the text of a resource.
type ReadFunc func(ctx context.Context) (string, error)

type toolEntry struct {
	tool    Tool
	handler Handler
}

type resourceEntry struct {
	resource Resource
	read     ReadFunc
}

// Server holds the tools and resources of one MCP server. It is safe for
// concurrent use.
type Server struct {
	name    string
	version string

	mu        sync.RWMutex
	tools     map[string]toolEntry
	resources map[string]resourceEntry
}

// NewServer returns a server with no tools or resources. name and version
// are reported to clients during initialize.
func NewServer(name, version string) *Server {
	return &Server{
		name:      name,
		version:   version,
		tools:     make(map[string]toolEntry),
		resources: make(map[string]resourceEntry),
	}
}

// Name returns the server name.
func (s *Server) Name() string {
	return s.name
}

// Version returns the server version.
func (s *Server) Version() string {
	return s.version
}

// AddTool registers a tool. A nil InputSchema accepts an empty object.
func (s *Server) AddTool(tool Tool, handler Handler) error {
	if tool.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if tool.InputSchema == nil {
		tool.InputSchema = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolExists, tool.Name)
	}
	s.tools[tool.Name] = toolEntry{tool: tool, handler: handler}
	return nil
}

// AddResource registers a resource.
func (s *Server) AddResource(res Resource, read ReadFunc) error {
	if res.URI == "" {
		return errors.New("resource uri cannot be empty")
	}
	if res.MimeType == "" {
		res.MimeType = "text/plain"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.resources[res.URI]; exists {
		return fmt.Errorf("%w: %s", ErrResourceExists, res.URI)
	}
	s.resources[res.URI] = resourceEntry{resource: res, read: read}
	return nil
}

// Tools lists the registered tools sorted by name.
func (s *Server) Tools() []Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Tool, 0, len(s.tools))
	for _, e := range s.tools {
		list = append(list, e.tool)
	}
	slices.SortFunc(list, func(a, b Tool) int { return strings.Compare(a.Name, b.Name) })
	return list
}

// Resources lists the registered resources sorted by URI.
func (s *Server) Resources() []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Resource, 0, len(s.resources))
	for _, e := range s.resources {
		list = append(list, e.resource)
	}
	slices.SortFunc(list, func(a, b Resource) int { return strings.Compare(a.URI, b.URI) })
	return list
}

// CallTool runs the named tool. Unknown tools and ErrInvalidArguments are
// returned as errors; other handler failures come back as a result with
// IsError set.
func (s *Server) CallTool(ctx context.Context, name string, args json.RawMessage) (CallResult, error) {
	s.mu.RLock()
	e, ok := s.tools[name]
	s.mu.RUnlock()
	if !ok {
		return CallResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	out, err := e.handler(ctx, args)
	if errors.Is(err, ErrInvalidArguments) {
		return CallResult{}, err
	}
	if err != nil {
		return CallResult{
			Content: []Content{{Type: "text", Text: fmt.Sprintf("Error calling tool '%s': %v", name, err)}},
			IsError: true,
		}, nil
	}
	return toResult(out)
}

func toResult(out any) (CallResult, error) {
	if text, ok := out.(string); ok {
		return CallResult{Content: []Content{{Type: "text", Text: text}}}, nil
	}

	raw, err := sonic.ConfigStd.Marshal(out)
	if err != nil {
		return CallResult{}, fmt.Errorf("failed to encode tool result: %w", err)
	}
	var structured any
	if err := sonic.Unmarshal(raw, &structured); err != nil {
		return CallResult{}, fmt.Errorf("failed to encode tool result: %w", err)
	}
	if _, isObject := structured.(map[string]any); !isObject {
		structured = map[string]any{"result": structured}
	}
	return CallResult{
		Content:           []Content{{Type: "text", Text: string(raw)}},
		StructuredContent: structured,
	}, nil
}

// ReadResource reads the resource at uri.
func (s *Server) ReadResource(ctx context.Context, uri string) (ResourceContents, error) {
	s.mu.RLock()
	e, ok := s.resources[uri]
	s.mu.RUnlock()
	if !ok {
		return ResourceContents{}, fmt.Errorf("%w: %s", ErrUnknownURI, uri)
	}

	text, err := e.read(ctx)
	if err != nil {
		return ResourceContents{}, err
	}
	return ResourceContents{URI: uri, MimeType: e.resource.MimeType, Text: text}, nil
}
