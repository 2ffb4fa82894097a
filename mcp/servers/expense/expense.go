// Package expense is an MCP server that records expenses in SQLite.
package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bytedance/sonic"
	"github.com/tailored-agentic-units/agentgraph/mcp"

	_ "modernc.org/sqlite"
)

const (
	Name          = "Expense Tracker"
	CategoriesURI = "expense://categories"
)

const schema = `CREATE TABLE IF NOT EXISTS expenses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT NOT NULL,
	subcategory TEXT,
	amount REAL NOT NULL,
	notes TEXT,
	date TEXT NOT NULL
)`

// Expense is one recorded expense.
type Expense struct {
	ID          int64   `json:"id"`
	Category    string  `json:"category"`
	Subcategory *string `json:"subcategory"`
	Amount      float64 `json:"amount"`
	Notes       *string `json:"notes"`
	Date        string  `json:"date"`
}

// Tracker stores expenses and serves the categories file.
type Tracker struct {
	db         *sql.DB
	categories string
}

// Open opens (creating if needed) the expense database at path.
func Open(ctx context.Context, path, categoriesPath string) (*Tracker, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open expense database: %w", err)
	}
	t, err := NewTracker(ctx, db, categoriesPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

// NewTracker prepares db for expenses.
func NewTracker(ctx context.Context, db *sql.DB, categoriesPath string) (*Tracker, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create expenses table: %w", err)
	}
	return &Tracker{db: db, categories: categoriesPath}, nil
}

// Close closes the expense database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Add records an expense and returns it with its id.
func (t *Tracker) Add(ctx context.Context, e Expense) (Expense, error) {
	res, err := t.db.ExecContext(ctx,
		`INSERT INTO expenses (category, subcategory, amount, notes, date) VALUES (?, ?, ?, ?, ?)`,
		e.Category, e.Subcategory, e.Amount, e.Notes, e.Date)
	if err != nil {
		return Expense{}, fmt.Errorf("failed to add expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return Expense{}, fmt.Errorf("failed to add expense: %w", err)
	}
	return e, nil
}

// List returns every expense in insertion order.
func (t *Tracker) List(ctx context.Context) ([]Expense, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, category, subcategory, amount, notes, date FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	list := []Expense{}
	for rows.Next() {
		var (
			e                  Expense
			subcategory, notes sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Category, &subcategory, &e.Amount, &notes, &e.Date); err != nil {
			return nil, fmt.Errorf("failed to list expenses: %w", err)
		}
		if subcategory.Valid {
			e.Subcategory = &subcategory.String
		}
		if notes.Valid {
			e.Notes = &notes.String
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Categories returns the categories file re-indented, or a JSON error
// object when it is missing or malformed.
func (t *Tracker) Categories() string {
	raw, err := os.ReadFile(t.categories)
	if errors.Is(err, fs.ErrNotExist) {
		return errorDoc("Categories file not found")
	}
	if err != nil {
		return errorDoc(err.Error())
	}

	var doc any
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return errorDoc("Invalid JSON in categories file")
	}
	out, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errorDoc(err.Error())
	}
	return string(out)
}

func errorDoc(msg string) string {
	out, _ := sonic.ConfigStd.MarshalIndent(map[string]string{"error": msg}, "", "  ")
	return string(out)
}

type addArgs struct {
	Category    string  `json:"category" desc:"Top-level category, such as food or travel"`
	Amount      float64 `json:"amount" desc:"Amount spent"`
	Notes       string  `json:"notes" desc:"Free-form notes"`
	Date        string  `json:"date" desc:"Date of the expense (YYYY-MM-DD)"`
	Subcategory string  `json:"subcategory,omitempty" desc:"Optional subcategory"`
}

type noArgs struct{}

// New returns the expense server over t.
func New(t *Tracker) (*mcp.Server, error) {
	s := mcp.NewServer(Name, "1.0.0")

	err := mcp.AddTypedTool(s, "add_expense", "Adds a new expense to the database.", addArgs{},
		func(ctx context.Context, in addArgs) (map[string]string, error) {
			e := Expense{Category: in.Category, Amount: in.Amount, Notes: &in.Notes, Date: in.Date}
			if in.Subcategory != "" {
				e.Subcategory = &in.Subcategory
			}
			if _, err := t.Add(ctx, e); err != nil {
				return nil, err
			}
			return map[string]string{"status": "success", "message": "Expense added."}, nil
		})
	if err != nil {
		return nil, err
	}

	err = mcp.AddTypedTool(s, "list_expenses", "Retrieves all expenses from the database.", noArgs{},
		func(ctx context.Context, _ noArgs) ([]Expense, error) {
			return t.List(ctx)
		})
	if err != nil {
		return nil, err
	}

	err = s.AddResource(mcp.Resource{
		URI:         CategoriesURI,
		Name:        "categories",
		Description: "Returns the list of available expense categories.",
		MimeType:    "application/json",
	}, func(context.Context) (string, error) {
		return t.Categories(), nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
