package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"

	"github.com/tailored-agentic-units/agentgraph/agents"
	"github.com/tailored-agentic-units/agentgraph/agents/chatbot"
	"github.com/tailored-agentic-units/agentgraph/checkpoint"
	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/mcp"
	"github.com/tailored-agentic-units/agentgraph/observability"
	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/session"
)

const help = `commands:
  /new          start a new thread
  /threads      list threads
  /switch <id>  continue an existing thread
  /quit         exit`

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file (JSON or YAML)")
		database   = flag.String("db", "chatbot.db", "SQLite file holding the threads when the config keeps the memory store")
		mcpURL     = flag.String("mcp", "", "Base URL of a connect MCP server whose tools are added to the chatbot")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg, err := setup(*configFile, *verbose)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Graph.Checkpoint.Store == "memory" {
		cfg.Graph.Checkpoint.Store = "sqlite"
		cfg.Graph.Checkpoint.Path = *database
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	models, err := llm.FromConfig(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to configure models: %v", err)
	}
	selector, err := agents.Selector(ctx, models)
	if err != nil {
		log.Fatalf("Failed to resolve models: %v", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	box, err := agents.Toolbox(cfg.Tools, httpClient)
	if err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}
	if *mcpURL != "" {
		names, err := mcp.Bridge(ctx, mcp.NewConnectClient(httpClient, *mcpURL), box, "")
		if err != nil {
			log.Fatalf("Failed to load MCP tools: %v", err)
		}
		ancli.PrintOK(fmt.Sprintf("loaded %d MCP tools: %v\n", len(names), names))
	}

	g, err := chatbot.New(selector, box)
	if err != nil {
		log.Fatalf("Failed to build chatbot graph: %v", err)
	}

	store, err := checkpoint.Open(ctx, cfg.Graph.Checkpoint)
	if err != nil {
		log.Fatalf("Failed to open checkpoint store: %v", err)
	}
	defer store.Close()

	observer, err := observability.GetObserver(cfg.Graph.Observer)
	if err != nil {
		log.Fatalf("Failed to resolve observer: %v", err)
	}

	svc := session.New(g,
		graph.WithStore(store),
		graph.WithObserver(observer),
		graph.WithMaxSteps(cfg.Graph.MaxSteps))

	r := &repl{svc: svc, in: bufio.NewReader(os.Stdin), thread: svc.NewThread()}
	if err := r.loop(ctx); err != nil {
		log.Fatalf("Chat failed: %v", err)
	}
	ancli.Okf("Seems like you wanted out. Byebye!\n")
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

type repl struct {
	svc    *session.Service
	in     *bufio.Reader
	thread string
}

func (r *repl) loop(ctx context.Context) error {
	ancli.PrintOK(fmt.Sprintf("thread %s\n", r.thread))
	fmt.Println(help)

	for {
		fmt.Print(ancli.ColoredMessage(ancli.CYAN, "you") + ": ")
		line, err := r.in.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}

		answer, err := r.svc.Send(ctx, r.thread, line, func(name string) {
			ancli.Noticef("using tool %s\n", name)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			ancli.PrintErr(fmt.Sprintf("failed to send message: %v\n", err))
			continue
		}
		fmt.Printf("%s: %s\n", ancli.ColoredMessage(ancli.MAGENTA, "assistant"), answer)
	}
}

// command runs a slash command and reports whether the loop should end.
func (r *repl) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		r.thread = r.svc.NewThread()
		ancli.PrintOK(fmt.Sprintf("thread %s\n", r.thread))
	case "/threads":
		threads, err := r.svc.Threads(ctx)
		if err != nil {
			ancli.PrintErr(fmt.Sprintf("failed to list threads: %v\n", err))
			return false
		}
		ancli.PrintOK(fmt.Sprintf("found '%v' threads:\n", len(threads)))
		for _, id := range threads {
			marker := " "
			if id == r.thread {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, id)
		}
	case "/switch":
		if len(fields) != 2 {
			ancli.PrintWarn("usage: /switch <id>\n")
			return false
		}
		r.switchTo(ctx, fields[1])
	default:
		ancli.PrintWarn(fmt.Sprintf("unknown command %s\n", fields[0]))
		fmt.Println(help)
	}
	return false
}

func (r *repl) switchTo(ctx context.Context, id string) {
	msgs, err := r.svc.Conversation(ctx, id)
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to load thread: %v\n", err))
		return
	}
	if msgs == nil {
		ancli.PrintWarn(fmt.Sprintf("thread %s has no messages yet\n", id))
	}
	r.thread = id
	ancli.PrintOK(fmt.Sprintf("switched to thread %s\n", id))

	for _, msg := range msgs {
		switch msg.Role {
		case protocol.RoleUser:
			fmt.Printf("%s: %s\n", ancli.ColoredMessage(ancli.CYAN, "you"), msg.Content)
		case protocol.RoleAssistant:
			if msg.Content != "" {
				fmt.Printf("%s: %s\n", ancli.ColoredMessage(ancli.MAGENTA, "assistant"), msg.Content)
			}
		}
	}
}
