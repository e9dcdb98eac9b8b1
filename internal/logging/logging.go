// Package logging routes slog records to Google Cloud Logging with a local
// fallback. Logging calls never surface errors into caller flow: the cloud
// client reports write failures asynchronously and those records are
// downgraded to the local handler.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/logging"
)

// LevelCritical sits above slog.LevelError and maps to the Critical severity
// of the remote sink.
const LevelCritical = slog.Level(12)

// EntrySink is the subset of the Cloud Logging logger the handler needs.
type EntrySink interface {
	Log(e logging.Entry)
}

// Handler is a slog.Handler backed by a remote log sink. When no sink is
// configured, records go to the fallback handler instead.
type Handler struct {
	sink     EntrySink
	fallback slog.Handler
	level    slog.Leveler
	labels   map[string]string
	attrs    []slog.Attr
	groups   []string
}

// NewHandler builds a Handler. sink may be nil, in which case all records go
// to fallback. labels are attached to every remote entry.
func NewHandler(sink EntrySink, fallback slog.Handler, level slog.Leveler, labels map[string]string) *Handler {
	if fallback == nil {
		fallback = slog.NewTextHandler(os.Stderr, nil)
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{sink: sink, fallback: fallback, level: level, labels: labels}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	if h.sink == nil {
		return h.fallback.Handle(ctx, rec)
	}

	payload := map[string]any{"message": rec.Message}
	for _, attr := range h.attrs {
		addAttr(payload, h.groups, attr)
	}
	rec.Attrs(func(attr slog.Attr) bool {
		addAttr(payload, h.groups, attr)
		return true
	})

	h.sink.Log(logging.Entry{
		Timestamp: rec.Time,
		Severity:  severityFor(rec.Level),
		Payload:   payload,
		Labels:    h.labels,
	})
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.fallback = h.fallback.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.fallback = h.fallback.WithGroup(name)
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func addAttr(payload map[string]any, groups []string, attr slog.Attr) {
	key := attr.Key
	if key == "" {
		return
	}
	for i := len(groups) - 1; i >= 0; i-- {
		key = groups[i] + "." + key
	}
	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		payload[key] = value.String()
	case slog.KindInt64:
		payload[key] = value.Int64()
	case slog.KindUint64:
		payload[key] = value.Uint64()
	case slog.KindFloat64:
		payload[key] = value.Float64()
	case slog.KindBool:
		payload[key] = value.Bool()
	case slog.KindDuration:
		payload[key] = value.Duration().String()
	case slog.KindTime:
		payload[key] = value.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	default:
		payload[key] = fmt.Sprint(value.Any())
	}
}

func severityFor(level slog.Level) logging.Severity {
	switch {
	case level >= LevelCritical:
		return logging.Critical
	case level >= slog.LevelError:
		return logging.Error
	case level >= slog.LevelWarn:
		return logging.Warning
	case level >= slog.LevelInfo:
		return logging.Info
	default:
		return logging.Debug
	}
}

// Setup builds the process logger. With a project id it connects to Cloud
// Logging; without one, or when the client cannot be created, it degrades to
// the local handler. The returned close function flushes pending entries.
func Setup(ctx context.Context, projectID, logName, environment string, level *slog.LevelVar) (*slog.Logger, func() error) {
	fallback := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if projectID == "" {
		slog.New(fallback).Warn("project id not configured, using local logging only")
		return slog.New(NewHandler(nil, fallback, level, nil)), func() error { return nil }
	}

	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		local := slog.New(fallback)
		local.Error("failed to initialize cloud logging, using local logging only", "error", err)
		return slog.New(NewHandler(nil, fallback, level, nil)), func() error { return nil }
	}

	// Write failures are reported asynchronously; keep them local instead of
	// surfacing into caller flow.
	client.OnError = func(err error) {
		slog.New(fallback).Error("cloud logging write failed", "error", err)
	}

	host, _ := os.Hostname()
	labels := map[string]string{"environment": environment, "machine": host}

	sink := client.Logger(logName)
	handler := NewHandler(sink, fallback, level, labels)
	logger := slog.New(handler)
	logger.Info("cloud logging initialized", "log_name", logName)
	return logger, client.Close
}
