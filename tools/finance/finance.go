// Package finance provides the stock market tools used by the trading
// agents: symbol lookup and quotes from Alpha Vantage, a simulated order
// desk, and an arithmetic helper.
package finance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tailored-agentic-units/agentgraph/config"
)

// DefaultBaseURL is the Alpha Vantage query endpoint.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// HistoryDays is the number of daily bars returned by StockData, roughly one
// trading month.
const HistoryDays = 22

var (
	ErrAPI             = errors.New("alpha vantage error")
	ErrDivisionByZero  = errors.New("cannot divide by zero")
	ErrInvalidOperator = errors.New("invalid operation, must be one of 'add', 'subtract', 'multiply', or 'divide'")
)

// Client queries Alpha Vantage.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a client from the tools configuration. A nil httpClient
// uses a client with a 30 second timeout.
func NewClient(cfg config.ToolsConfig, httpClient *http.Client) *Client {
	baseURL := cfg.AlphaVantageURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{apiKey: cfg.AlphaVantageKey, baseURL: baseURL, http: httpClient}
}

func (c *Client) query(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAPI, resp.StatusCode)
	}

	var notice struct {
		Error       string `json:"Error Message"`
		Note        string `json:"Note"`
		Information string `json:"Information"`
	}
	if err := sonic.Unmarshal(body, &notice); err == nil {
		switch {
		case notice.Error != "":
			return fmt.Errorf("%w: %s", ErrAPI, notice.Error)
		case notice.Note != "":
			return fmt.Errorf("%w: %s", ErrAPI, notice.Note)
		case notice.Information != "":
			return fmt.Errorf("%w: %s", ErrAPI, notice.Information)
		}
	}

	return sonic.Unmarshal(body, out)
}

// LookupSymbol returns the best matching ticker for a company name, or ""
// when nothing matches.
func (c *Client) LookupSymbol(ctx context.Context, company string) (string, error) {
	var data struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	params := url.Values{"function": {"SYMBOL_SEARCH"}, "keywords": {company}}
	if err := c.query(ctx, params, &data); err != nil {
		return "", err
	}
	if len(data.BestMatches) == 0 {
		return "", nil
	}
	return data.BestMatches[0]["1. symbol"], nil
}

// Bar is one day of price data.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// StockData combines the latest quote with recent daily history.
type StockData struct {
	Symbol  string            `json:"stock_symbol"`
	Info    map[string]string `json:"info"`
	History []Bar             `json:"history"`
}

// StockData fetches the global quote and the last HistoryDays daily bars,
// newest first.
func (c *Client) StockData(ctx context.Context, symbol string) (StockData, error) {
	var quote struct {
		Quote map[string]string `json:"Global Quote"`
	}
	if err := c.query(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}, &quote); err != nil {
		return StockData{}, err
	}

	var series struct {
		Daily map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := c.query(ctx, url.Values{"function": {"TIME_SERIES_DAILY"}, "symbol": {symbol}}, &series); err != nil {
		return StockData{}, err
	}

	dates := make([]string, 0, len(series.Daily))
	for d := range series.Daily {
		dates = append(dates, d)
	}
	slices.Sort(dates)
	slices.Reverse(dates)
	if len(dates) > HistoryDays {
		dates = dates[:HistoryDays]
	}

	history := make([]Bar, 0, len(dates))
	for _, d := range dates {
		history = append(history, parseBar(d, series.Daily[d]))
	}

	info := make(map[string]string, len(quote.Quote))
	for k, v := range quote.Quote {
		info[trimIndex(k)] = v
	}

	return StockData{Symbol: symbol, Info: info, History: history}, nil
}

func parseBar(date string, fields map[string]string) Bar {
	num := func(key string) float64 {
		v, _ := strconv.ParseFloat(fields[key], 64)
		return v
	}
	vol, _ := strconv.ParseInt(fields["5. volume"], 10, 64)
	return Bar{
		Date:   date,
		Open:   num("1. open"),
		High:   num("2. high"),
		Low:    num("3. low"),
		Close:  num("4. close"),
		Volume: vol,
	}
}

// trimIndex turns Alpha Vantage keys like "05. price" into "price".
func trimIndex(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ' ' && i > 0 && key[i-1] == '.' {
			return key[i+1:]
		}
	}
	return key
}

// Order is a simulated trade request.
type Order struct {
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Shares     int     `json:"shares"`
	LimitPrice float64 `json:"limit_price"`
	OrderType  string  `json:"order_type,omitempty"`
}

// Fill is the outcome of a simulated order.
type Fill struct {
	Status     string  `json:"status"`
	Symbol     string  `json:"symbol"`
	Shares     int     `json:"shares"`
	LimitPrice float64 `json:"limit_price"`
	TotalSpent float64 `json:"total_spent"`
	Type       string  `json:"type"`
	Action     string  `json:"action"`
}

// PlaceOrder fills an order immediately at its limit price.
func PlaceOrder(o Order) Fill {
	typ := o.OrderType
	if typ == "" {
		typ = "limit"
	}
	return Fill{
		Status:     "filled",
		Symbol:     o.Symbol,
		Shares:     o.Shares,
		LimitPrice: o.LimitPrice,
		TotalSpent: math.Round(float64(o.Shares)*o.LimitPrice*100) / 100,
		Type:       typ,
		Action:     o.Action,
	}
}

// Calculate applies operation to a and b.
func Calculate(a, b float64, operation string) (float64, error) {
	switch operation {
	case "add":
		return a + b, nil
	case "subtract":
		return a - b, nil
	case "multiply":
		return a * b, nil
	case "divide":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperator, operation)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
