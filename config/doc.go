// Package config holds the initialization parameters of graphs, checkpoint
// stores, chat models, tools, servers and logging.
//
// Configuration structs are plain values used only while wiring a process.
// Each has a Default constructor and a Merge method that copies the non-zero
// fields of another value, so a file only needs to name what it changes:
//
//	cfg, err := config.Load("agents.yaml")
//	runner, err := graph.NewRunnerFromConfig(g, cfg.Graph, store)
//
// Load layers defaults, the file (YAML or JSON by extension) and environment
// variables, in that order.
package config
