package search_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/tools"
	"github.com/tailored-agentic-units/agentgraph/tools/search"
)

type tavilyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func tavily(t *testing.T, seen *[]tavilyRequest, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tv-key" {
			t.Errorf("Authorization = %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		var req tavilyRequest
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("bad request body: %s", data)
		}
		*seen = append(*seen, req)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRegistry(t *testing.T, seen *[]tavilyRequest, body string) *tools.Registry {
	t.Helper()
	srv := tavily(t, seen, body)
	r := tools.NewRegistry()
	c := search.NewClient(config.ToolsConfig{TavilyKey: "tv-key", TavilyURL: srv.URL}, srv.Client())
	if err := search.Register(r, c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return r
}

func TestClampResults(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1}, {-4, 1}, {1, 1}, {5, 5}, {10, 10}, {11, 10}, {50, 10},
	}
	for _, tt := range tests {
		if got := search.ClampResults(tt.in); got != tt.want {
			t.Errorf("ClampResults(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWebSearch_FiltersAndDropsRawContent(t *testing.T) {
	var seen []tavilyRequest
	body := `{"results":[
		{"title":"AI chips","url":"https://a.example","content":"Nvidia leads the market","score":0.9,"raw_content":"<html>huge</html>"},
		{"title":"Blocked","url":"https://b.example","content":"Access Denied by edge firewall"},
		{"title":"Robot check","url":"https://c.example","content":"Please verify you are a human"},
		{"title":"No content","url":"https://d.example"}
	]}`
	r := newRegistry(t, &seen, body)

	res, err := r.Execute(context.Background(), search.ToolName, json.RawMessage(`{"query":"emerging AI hardware companies","max_results":25}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(seen) != 1 || seen[0].MaxResults != 10 || seen[0].Query != "emerging AI hardware companies" {
		t.Errorf("requests = %+v", seen)
	}

	var out struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		t.Fatalf("content = %s: %v", res.Content, err)
	}
	if len(out.Results) != 2 {
		t.Fatalf("results = %v, want 2 pages", out.Results)
	}
	if out.Results[0]["title"] != "AI chips" || out.Results[1]["title"] != "No content" {
		t.Errorf("results = %v", out.Results)
	}
	if _, ok := out.Results[0]["raw_content"]; ok {
		t.Error("raw_content should be dropped")
	}
	if out.Results[0]["score"] != 0.9 {
		t.Errorf("score = %v, want passthrough", out.Results[0]["score"])
	}
}

func TestWebSearch_DefaultMaxResults(t *testing.T) {
	var seen []tavilyRequest
	r := newRegistry(t, &seen, `{"results":[]}`)

	if _, err := r.Execute(context.Background(), search.ToolName, json.RawMessage(`{"query":"go"}`)); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(seen) != 1 || seen[0].MaxResults != search.DefaultMaxResults {
		t.Errorf("requests = %+v", seen)
	}
}

func TestWebSearch_NoResults(t *testing.T) {
	var seen []tavilyRequest
	r := newRegistry(t, &seen, `{"results":[{"title":"x","content":"CAPTCHA required"}]}`)

	res, err := r.Execute(context.Background(), search.ToolName, json.RawMessage(`{"query":"anything","max_results":0}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Content != `{"results":"No results found for the query."}` {
		t.Errorf("content = %s", res.Content)
	}
	if seen[0].MaxResults != 1 {
		t.Errorf("max_results = %d, want 1", seen[0].MaxResults)
	}
}

func TestWebSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := tools.NewRegistry()
	search.Register(r, search.NewClient(config.ToolsConfig{TavilyURL: srv.URL}, srv.Client()))

	res, err := r.Execute(context.Background(), search.ToolName, json.RawMessage(`{"query":"x"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.IsError || !strings.Contains(res.Content, "status 401") {
		t.Errorf("result = %+v", res)
	}
}
