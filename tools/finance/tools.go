package finance

import (
	"context"
	"encoding/json"

	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

// Tool names.
const (
	LookupStock    = "lookup_stock"
	FetchStockData = "fetch_stock_data"
	PlaceOrderTool = "place_order"
	CalculateTool  = "calculate"
)

// Register adds the finance tools to r.
func Register(r *tools.Registry, c *Client) error {
	entries := []struct {
		tool    protocol.Tool
		handler tools.Handler
	}{
		{
			tool: protocol.Tool{
				Name:        LookupStock,
				Description: "Converts a company name to its stock symbol using a financial API.",
				Parameters: protocol.ObjectSchema(map[string]any{
					"company_name": protocol.Property("string", "The full company name (e.g., 'Tesla')."),
				}, "company_name"),
			},
			handler: c.handleLookup,
		},
		{
			tool: protocol.Tool{
				Name:        FetchStockData,
				Description: "Fetches the latest quote and one month of daily history for a stock symbol.",
				Parameters: protocol.ObjectSchema(map[string]any{
					"stock_symbol": protocol.Property("string", "The stock ticker symbol (e.g., 'TSLA')."),
				}, "stock_symbol"),
			},
			handler: c.handleFetch,
		},
		{
			tool: protocol.Tool{
				Name:        PlaceOrderTool,
				Description: "Execute a stock order. Shares are pre-computed by the agent.",
				Parameters: protocol.ObjectSchema(map[string]any{
					"symbol":      protocol.Property("string", "Ticker."),
					"action":      map[string]any{"type": "string", "enum": []string{"buy", "sell"}},
					"shares":      protocol.Property("integer", "Number of shares to trade."),
					"limit_price": protocol.Property("number", "Limit price per share."),
					"order_type":  protocol.Property("string", "Order type, default \"limit\"."),
				}, "symbol", "action", "shares", "limit_price"),
			},
			handler: handlePlaceOrder,
		},
		{
			tool: protocol.Tool{
				Name:        CalculateTool,
				Description: "Performs a specified arithmetic operation on two numbers.",
				Parameters: protocol.ObjectSchema(map[string]any{
					"a": protocol.Property("number", "The first number."),
					"b": protocol.Property("number", "The second number."),
					"operation": map[string]any{
						"type":        "string",
						"description": "The operation to perform.",
						"enum":        []string{"add", "subtract", "multiply", "divide"},
					},
				}, "a", "b", "operation"),
			},
			handler: handleCalculate,
		},
	}

	for _, e := range entries {
		if err := r.Register(e.tool, e.handler); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) handleLookup(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	args, err := tools.Decode[struct {
		CompanyName string `json:"company_name"`
	}](raw)
	if err != nil {
		return tools.Errorf("%v", err), nil
	}

	symbol, err := c.LookupSymbol(ctx, args.CompanyName)
	if err != nil {
		return tools.Errorf("Error looking up %s: %v", args.CompanyName, err), nil
	}
	if symbol == "" {
		return tools.Result{Content: "Symbol not found for " + args.CompanyName + "."}, nil
	}
	return tools.Result{Content: symbol}, nil
}

func (c *Client) handleFetch(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
	args, err := tools.Decode[struct {
		StockSymbol string `json:"stock_symbol"`
	}](raw)
	if err != nil {
		return tools.Errorf("%v", err), nil
	}

	data, err := c.StockData(ctx, args.StockSymbol)
	if err != nil {
		res, jerr := tools.JSON(map[string]string{
			"error": "Error fetching stock data for " + args.StockSymbol + ": " + err.Error(),
		})
		if jerr != nil {
			return tools.Result{}, jerr
		}
		res.IsError = true
		return res, nil
	}
	return tools.JSON(data)
}

func handlePlaceOrder(_ context.Context, raw json.RawMessage) (tools.Result, error) {
	order, err := tools.Decode[Order](raw)
	if err != nil {
		return tools.Errorf("%v", err), nil
	}
	return tools.JSON(PlaceOrder(order))
}

func handleCalculate(_ context.Context, raw json.RawMessage) (tools.Result, error) {
	args, err := tools.Decode[struct {
		A         float64 `json:"a"`
		B         float64 `json:"b"`
		Operation string  `json:"operation"`
	}](raw)
	if err != nil {
		return tools.Errorf("%v", err), nil
	}

	v, err := Calculate(args.A, args.B, args.Operation)
	if err != nil {
		return tools.Errorf("%v", err), nil
	}
	return tools.Result{Content: formatFloat(v)}, nil
}
