package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/google/uuid"

	"github.com/tailored-agentic-units/agentgraph/agents"
	"github.com/tailored-agentic-units/agentgraph/agents/command"
	"github.com/tailored-agentic-units/agentgraph/agents/linkedin"
	"github.com/tailored-agentic-units/agentgraph/agents/research"
	"github.com/tailored-agentic-units/agentgraph/agents/supervisor"
	"github.com/tailored-agentic-units/agentgraph/checkpoint"
	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/observability"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
)

const usage = "Usage: agents <linkedin|research|command|supervisor> [-config <file>] [-topic <text>]"

func main() {
	var (
		configFile    = flag.String("config", "", "Path to config file (JSON or YAML)")
		topic         = flag.String("topic", "", "Topic or request for the agent")
		sessionID     = flag.String("session", "", "Session ID; a new one is generated when empty")
		maxIterations = flag.Int("max-iterations", 3, "Revision budget of the linkedin agent")
		analysts      = flag.Int("analysts", research.DefaultMaxAnalysts, "Number of analysts of the research agent")
		choice        = flag.String("choice", "", "Branch of the command agent (b or c); random when empty")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flag.PrintDefaults()
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}
	name := os.Args[1]
	if err := flag.CommandLine.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}

	cfg, err := setup(*configFile, *verbose)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	models, err := llm.FromConfig(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to configure models: %v", err)
	}

	opts := options{
		topic:         *topic,
		maxIterations: *maxIterations,
		analysts:      *analysts,
		choice:        *choice,
	}
	g, input, err := build(ctx, name, cfg, models, opts)
	if err != nil {
		log.Fatalf("Failed to build %s graph: %v", name, err)
	}
	a := &app{name: name, in: bufio.NewReader(os.Stdin)}

	store, err := checkpoint.Open(ctx, cfg.Graph.Checkpoint)
	if err != nil {
		log.Fatalf("Failed to open checkpoint store: %v", err)
	}
	defer store.Close()

	runner, err := graph.NewRunnerFromConfig(g, cfg.Graph, store, graph.WithUpdateHandler(printUpdate))
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}

	id := *sessionID
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	ancli.PrintOK(fmt.Sprintf("running %s, session %s\n", name, id))

	run, err := runner.Start(ctx, id, input)
	for err == nil && run.Interrupted() {
		var patch graph.Update
		patch, err = a.answer(run)
		if err != nil {
			break
		}
		run, err = runner.Resume(ctx, id, patch)
	}
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	a.report(run)
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

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

type options struct {
	topic         string
	maxIterations int
	analysts      int
	choice        string
}

func build(ctx context.Context, name string, cfg *config.Config, models *llm.Registry, opts options) (*graph.Graph, graph.Update, error) {
	switch name {
	case "linkedin":
		m, err := linkedin.ModelsFrom(ctx, models)
		if err != nil {
			return nil, nil, err
		}
		g, err := linkedin.New(m)
		return g, linkedin.Input(orDefault(opts.topic, "AI agents in the workplace"), opts.maxIterations), err
	case "research":
		m, err := models.GetOr(ctx, "analyst", config.DefaultModelRole)
		if err != nil {
			return nil, nil, err
		}
		g, err := research.New(m)
		return g, research.Input(orDefault(opts.topic, "AI agents"), opts.analysts), err
	case "command":
		chooser := command.Random
		if opts.choice != "" {
			chooser = func() string { return opts.choice }
		}
		g, err := command.New(chooser)
		return g, graph.Update{}, err
	case "supervisor":
		box, err := agents.Toolbox(cfg.Tools, &http.Client{Timeout: 30 * time.Second})
		if err != nil {
			return nil, nil, err
		}
		m, err := supervisor.ModelsFrom(ctx, models)
		if err != nil {
			return nil, nil, err
		}
		g, err := supervisor.New(m, box, cfg.Tools.RiskyTools)
		return g, prebuilt.UserInput(orDefault(opts.topic, "Find a promising AI company and buy 2 shares")), err
	default:
		return nil, nil, fmt.Errorf("unknown agent %q\n%s", name, usage)
	}
}
