package finance_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/tools"
	"github.com/tailored-agentic-units/agentgraph/tools/finance"
)

func alphaVantage(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "test-key" {
			t.Errorf("apikey = %q", q.Get("apikey"))
		}

		switch q.Get("function") {
		case "SYMBOL_SEARCH":
			if q.Get("keywords") == "Nobody Inc" {
				w.Write([]byte(`{"bestMatches":[]}`))
				return
			}
			w.Write([]byte(`{"bestMatches":[{"1. symbol":"TSLA","2. name":"Tesla Inc"},{"1. symbol":"TL0.DEX"}]}`))
		case "GLOBAL_QUOTE":
			if q.Get("symbol") == "LIMIT" {
				w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
				return
			}
			w.Write([]byte(`{"Global Quote":{"01. symbol":"TSLA","05. price":"251.0500","07. latest trading day":"2025-08-20"}}`))
		case "TIME_SERIES_DAILY":
			w.Write([]byte(`{"Time Series (Daily)":{
				"2025-08-18":{"1. open":"240.0","2. high":"245.0","3. low":"238.5","4. close":"244.1","5. volume":"1000"},
				"2025-08-20":{"1. open":"249.0","2. high":"252.0","3. low":"247.0","4. close":"251.05","5. volume":"3000"},
				"2025-08-19":{"1. open":"244.0","2. high":"250.0","3. low":"243.0","4. close":"248.9","5. volume":"2000"}
			}}`))
		default:
			http.Error(w, "unknown function", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	srv := alphaVantage(t)
	client := finance.NewClient(config.ToolsConfig{AlphaVantageKey: "test-key", AlphaVantageURL: srv.URL}, srv.Client())

	r := tools.NewRegistry()
	if err := finance.Register(r, client); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return r
}

func TestRegister_Names(t *testing.T) {
	names := newRegistry(t).Names()
	want := []string{"calculate", "fetch_stock_data", "lookup_stock", "place_order"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestLookupStock(t *testing.T) {
	r := newRegistry(t)

	tests := []struct {
		name    string
		company string
		want    string
	}{
		{name: "best match", company: "Tesla", want: "TSLA"},
		{name: "no match", company: "Nobody Inc", want: "Symbol not found for Nobody Inc."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, _ := json.Marshal(map[string]string{"company_name": tt.company})
			res, err := r.Execute(context.Background(), finance.LookupStock, args)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if res.Content != tt.want || res.IsError {
				t.Errorf("result = %+v, want %q", res, tt.want)
			}
		})
	}
}

func TestFetchStockData(t *testing.T) {
	r := newRegistry(t)

	res, err := r.Execute(context.Background(), finance.FetchStockData, json.RawMessage(`{"stock_symbol":"TSLA"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Content)
	}

	var data finance.StockData
	if err := json.Unmarshal([]byte(res.Content), &data); err != nil {
		t.Fatalf("content is not StockData: %v", err)
	}
	if data.Symbol != "TSLA" || data.Info["price"] != "251.0500" {
		t.Errorf("data = %+v", data)
	}
	if len(data.History) != 3 {
		t.Fatalf("history = %d bars, want 3", len(data.History))
	}
	if data.History[0].Date != "2025-08-20" || data.History[0].Close != 251.05 || data.History[0].Volume != 3000 {
		t.Errorf("newest bar = %+v", data.History[0])
	}
}

func TestFetchStockData_APINote(t *testing.T) {
	r := newRegistry(t)

	res, err := r.Execute(context.Background(), finance.FetchStockData, json.RawMessage(`{"stock_symbol":"LIMIT"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.IsError || !strings.Contains(res.Content, "Error fetching stock data for LIMIT") {
		t.Errorf("result = %+v, want error payload", res)
	}
}

func TestPlaceOrder(t *testing.T) {
	tests := []struct {
		name  string
		order finance.Order
		want  finance.Fill
	}{
		{
			name:  "default limit type",
			order: finance.Order{Symbol: "AAPL", Action: "buy", Shares: 3, LimitPrice: 10.25},
			want:  finance.Fill{Status: "filled", Symbol: "AAPL", Action: "buy", Shares: 3, LimitPrice: 10.25, TotalSpent: 30.75, Type: "limit"},
		},
		{
			name:  "explicit type",
			order: finance.Order{Symbol: "MSFT", Action: "sell", Shares: 2, LimitPrice: 412.5, OrderType: "market"},
			want:  finance.Fill{Status: "filled", Symbol: "MSFT", Action: "sell", Shares: 2, LimitPrice: 412.5, TotalSpent: 825, Type: "market"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := finance.PlaceOrder(tt.order); got != tt.want {
				t.Errorf("PlaceOrder = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlaceOrderTool(t *testing.T) {
	r := newRegistry(t)

	res, err := r.Execute(context.Background(), finance.PlaceOrderTool,
		json.RawMessage(`{"symbol":"NVDA","action":"buy","shares":4,"limit_price":120.25}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var fill finance.Fill
	if err := json.Unmarshal([]byte(res.Content), &fill); err != nil {
		t.Fatalf("content is not a Fill: %v", err)
	}
	if fill.Status != "filled" || fill.TotalSpent != 481 || fill.Type != "limit" {
		t.Errorf("fill = %+v", fill)
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		op      string
		a, b    float64
		want    float64
		wantErr error
	}{
		{op: "add", a: 2, b: 3, want: 5},
		{op: "subtract", a: 2, b: 3, want: -1},
		{op: "multiply", a: 2.5, b: 4, want: 10},
		{op: "divide", a: 9, b: 3, want: 3},
		{op: "divide", a: 1, b: 0, wantErr: finance.ErrDivisionByZero},
		{op: "modulo", a: 1, b: 2, wantErr: finance.ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, err := finance.Calculate(tt.a, tt.b, tt.op)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Calculate = %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestCalculateTool(t *testing.T) {
	r := newRegistry(t)

	res, err := r.Execute(context.Background(), finance.CalculateTool, json.RawMessage(`{"a":1000,"b":3,"operation":"divide"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.HasPrefix(res.Content, "333.33") {
		t.Errorf("content = %q", res.Content)
	}

	res, err = r.Execute(context.Background(), finance.CalculateTool, json.RawMessage(`{"a":1,"b":0,"operation":"divide"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.IsError || !strings.Contains(res.Content, "divide by zero") {
		t.Errorf("result = %+v, want divide by zero error", res)
	}
}
