package expense_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/mcp/servers/expense"
)

func openTracker(t *testing.T, categories string) (*expense.Tracker, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.json")
	if categories != "" {
		if err := os.WriteFile(path, []byte(categories), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	tr, err := expense.Open(context.Background(), filepath.Join(dir, "expenses.db"), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr, path
}

func TestExpenseTools(t *testing.T) {
	tr, _ := openTracker(t, "")
	s, err := expense.New(tr)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	adds := []string{
		`{"category":"food","amount":12.5,"notes":"lunch","date":"2025-01-02","subcategory":"restaurant"}`,
		`{"category":"travel","amount":40,"notes":"train","date":"2025-01-03"}`,
	}
	for _, args := range adds {
		res, err := s.CallTool(ctx, "add_expense", json.RawMessage(args))
		if err != nil {
			t.Fatalf("add_expense failed: %v", err)
		}
		if res.Text() != `{"message":"Expense added.","status":"success"}` {
			t.Errorf("add_expense = %s", res.Text())
		}
	}

	if _, err := s.CallTool(ctx, "add_expense", json.RawMessage(`{"category":"food"}`)); err == nil {
		t.Error("add_expense without amount should be rejected")
	}

	res, err := s.CallTool(ctx, "list_expenses", nil)
	if err != nil {
		t.Fatalf("list_expenses failed: %v", err)
	}
	var list []expense.Expense
	if err := json.Unmarshal([]byte(res.Text()), &list); err != nil {
		t.Fatalf("invalid list %s: %v", res.Text(), err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d expenses, want 2", len(list))
	}
	if list[0].ID != 1 || list[0].Subcategory == nil || *list[0].Subcategory != "restaurant" {
		t.Errorf("first expense = %+v", list[0])
	}
	if list[1].Subcategory != nil || list[1].Amount != 40 || *list[1].Notes != "train" {
		t.Errorf("second expense = %+v", list[1])
	}
}

func TestListExpenses_Empty(t *testing.T) {
	tr, _ := openTracker(t, "")
	list, err := tr.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("List() = %#v, want an empty slice", list)
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"missing", "", "{\n  \"error\": \"Categories file not found\"\n}"},
		{"invalid", "{not json", "{\n  \"error\": \"Invalid JSON in categories file\"\n}"},
		{"reindented", `{"food":["groceries","restaurant"]}`, "{\n  \"food\": [\n    \"groceries\",\n    \"restaurant\"\n  ]\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := openTracker(t, tt.file)
			s, err := expense.New(tr)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			contents, err := s.ReadResource(context.Background(), expense.CategoriesURI)
			if err != nil {
				t.Fatalf("ReadResource failed: %v", err)
			}
			if strings.TrimSpace(contents.Text) != tt.want {
				t.Errorf("categories =\n%s\nwant\n%s", contents.Text, tt.want)
			}
		})
	}
}
