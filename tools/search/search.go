// Package search provides the web_search tool backed by the Tavily API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

const (
	// DefaultBaseURL is the Tavily search endpoint.
	DefaultBaseURL = "https://api.tavily.com/search"

	ToolName          = "web_search"
	DefaultMaxResults = 5
	MaxResultsLimit   = 10
	NoResults         = "No results found for the query."
)

// BlockedPhrases mark pages that returned an access wall instead of content.
var BlockedPhrases = []string{
	"403 forbidden",
	"access denied",
	"captcha",
	"has been denied",
	"not authorized",
	"verify you are a human",
}

// Page is one search hit as returned by Tavily. Fields other than
// raw_content are passed through.
type Page map[string]any

// Client queries Tavily.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a client from the tools configuration. A nil httpClient
// uses a client with a 30 second timeout.
func NewClient(cfg config.ToolsConfig, httpClient *http.Client) *Client {
	baseURL := cfg.TavilyURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{apiKey: cfg.TavilyKey, baseURL: baseURL, http: httpClient}
}

// ClampResults bounds n to [1, MaxResultsLimit].
func ClampResults(n int) int {
	return max(1, min(n, MaxResultsLimit))
}

// Search runs query and returns the usable pages: raw_content is dropped and
// pages whose content shows an access wall are filtered out.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Page, error) {
	body, err := sonic.Marshal(map[string]any{
		"query":       query,
		"max_results": ClampResults(maxResults),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily search failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var raw struct {
		Results []Page `json:"results"`
	}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}

	pages := make([]Page, 0, len(raw.Results))
	for _, p := range raw.Results {
		if blocked(p) {
			continue
		}
		delete(p, "raw_content")
		pages = append(pages, p)
	}
	return pages, nil
}

func blocked(p Page) bool {
	content, _ := p["content"].(string)
	content = strings.ToLower(content)
	for _, phrase := range BlockedPhrases {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	return false
}

// Register adds web_search to r.
func Register(r *tools.Registry, c *Client) error {
	return r.Register(protocol.Tool{
		Name: ToolName,
		Description: "General-purpose web search. Use when you need recent or broader information " +
			"from the web to answer the user's request.",
		Parameters: protocol.ObjectSchema(map[string]any{
			"query":       protocol.Property("string", "The search query in plain language."),
			"max_results": protocol.Property("integer", "Number of results to return (default 5, max 10)."),
		}, "query"),
	}, c.handle)
}

func (c *Client) handle(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	args, err := tools.Decode[struct {
		Query      string `json:"query"`
		MaxResults *int   `json:"max_results"`
	}](raw)
	if err != nil {
		return tools.Errorf("%v", err), nil
	}

	n := DefaultMaxResults
	if args.MaxResults != nil {
		n = *args.MaxResults
	}

	pages, err := c.Search(ctx, args.Query, n)
	if err != nil {
		return tools.Errorf("Error during web search: %v", err), nil
	}
	if len(pages) == 0 {
		return tools.JSON(map[string]string{"results": NoResults})
	}
	return tools.JSON(map[string]any{"results": pages})
}
