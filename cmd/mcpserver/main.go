package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"

	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/mcp"
	"github.com/tailored-agentic-units/agentgraph/mcp/servers/demo"
	"github.com/tailored-agentic-units/agentgraph/mcp/servers/expense"
	"github.com/tailored-agentic-units/agentgraph/mcp/servers/mathsrv"
	"github.com/tailored-agentic-units/agentgraph/observability"
)

const shutdownTimeout = 5 * time.Second

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file (JSON or YAML)")
		server     = flag.String("server", "demo", "Server to run: demo, math or expense")
		transport  = flag.String("transport", "", "Transport: stdio, http or connect (overrides config)")
		addr       = flag.String("addr", "", "Listen address for http and connect (overrides config)")
		database   = flag.String("db", "", "SQLite file of the expense server (overrides config)")
		categories = flag.String("categories", "", "Categories JSON of the expense server (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg, err := setup(*configFile, *verbose)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv := cfg.Server
	srv.Merge(&config.ServerConfig{
		Transport:  *transport,
		Addr:       *addr,
		Database:   *database,
		Categories: *categories,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, closeFn, err := build(ctx, *server, srv)
	if err != nil {
		log.Fatalf("Failed to create %s server: %v", *server, err)
	}
	defer closeFn()

	switch srv.Transport {
	case "stdio":
		slog.Info("serving mcp over stdio", "server", s.Name())
		err = s.ServeStdio(ctx, os.Stdin, os.Stdout)
	case "http":
		mux := http.NewServeMux()
		mux.Handle("/mcp", s.HTTPHandler())
		ancli.PrintOK(fmt.Sprintf("%s listening on http://%s/mcp\n", s.Name(), srv.Addr))
		err = serve(ctx, srv.Addr, mux)
	case "connect":
		mux := http.NewServeMux()
		path, handler := mcp.NewConnectHandler(s)
		mux.Handle(path, handler)
		ancli.PrintOK(fmt.Sprintf("%s listening on http://%s%s\n", s.Name(), srv.Addr, path))
		err = serve(ctx, srv.Addr, mux)
	default:
		log.Fatalf("Unknown transport %q (want stdio, http or connect)", srv.Transport)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server failed: %v", err)
	}
}

func setup(configFile string, verbose bool) (*config.Config, error) {
	if err := config.LoadDotenv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cfg, nil
}

func build(ctx context.Context, name string, cfg config.ServerConfig) (*mcp.Server, func(), error) {
	noop := func() {}

	switch name {
	case "demo":
		s, err := demo.New(rand.IntN)
		return s, noop, err
	case "math":
		s, err := mathsrv.New(rand.IntN)
		return s, noop, err
	case "expense":
		tracker, err := expense.Open(ctx, cfg.Database, cfg.Categories)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := tracker.Close(); err != nil {
				slog.Error("failed to close expense database", "error", err)
			}
		}
		s, err := expense.New(tracker)
		return s, closeFn, err
	default:
		return nil, noop, fmt.Errorf("unknown server %q (want demo, math or expense)", name)
	}
}

// serve runs an HTTP server on addr until ctx is done.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
