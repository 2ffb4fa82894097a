package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// SlogObserver writes events to a slog.Logger. The event type is the message,
// Source becomes the "source" attribute and Data keys follow in sorted order.
// A nil logger resolves to slog.Default at emission time.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver returns an observer writing to logger, or to slog.Default
// when logger is nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	level := event.Level.SlogLevel()
	if !logger.Enabled(ctx, level) {
		return
	}

	keys := make([]string, 0, len(event.Data))
	for k := range event.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("source", event.Source))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, event.Data[k]))
	}

	logger.LogAttrs(ctx, level, string(event.Type), attrs...)
}

// NewLogger builds the process logger used by the binaries. Format is "text"
// or "json"; level accepts the names understood by ParseLevel.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl.SlogLevel()}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}
