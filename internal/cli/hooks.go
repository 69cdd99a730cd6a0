package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/carepath/pkg/observability"
)

// logHooks reports editor, cache and document service events as debug log
// lines.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnOpen(_ context.Context, graphID string, nodes int, d time.Duration, err error) {
	h.logger.Debug("open", "graph", graphID, "nodes", nodes, "duration", d.Round(time.Millisecond), "err", err)
}

func (h logHooks) OnSave(_ context.Context, graphID string, d time.Duration, err error) {
	h.logger.Debug("save", "graph", graphID, "duration", d.Round(time.Millisecond), "err", err)
}

func (h logHooks) OnExport(_ context.Context, format string, cached bool, d time.Duration, err error) {
	h.logger.Debug("export", "format", format, "cached", cached, "duration", d.Round(time.Millisecond), "err", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnRequest(context.Context, string, string, string) {}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http failed", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ observability.EditorHooks = logHooks{}
	_ observability.CacheHooks  = logHooks{}
	_ observability.HTTPHooks   = logHooks{}
)
