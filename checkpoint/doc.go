// Package checkpoint provides durable graph.CheckpointStore implementations:
// a directory of JSON files, a SQLite database and Redis lists. Open selects
// one from configuration.
package checkpoint
