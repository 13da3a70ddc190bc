package logger

import (
	"context"
	"log/slog"
	"sync"
)

// recentLog keeps the last size WARN/ERROR entries and running totals.
type recentLog struct {
	mu     sync.Mutex
	size   int
	items  []LogEntry
	warns  int
	errors int
}

func newRecentLog(size int) *recentLog {
	return &recentLog{size: size, items: make([]LogEntry, 0, size)}
}

func (r *recentLog) add(e LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == r.size {
		copy(r.items, r.items[1:])
		r.items = r.items[:r.size-1]
	}
	r.items = append(r.items, e)

	if e.Level >= slog.LevelError {
		r.errors++
	} else {
		r.warns++
	}
}

func (r *recentLog) entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.items...)
}

func (r *recentLog) counts() (warn, err int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warns, r.errors
}

// captureHandler forwards to inner and copies WARN and above into log.
// The connection and error attributes are lifted into the entry, whether
// they were bound with With or passed on the record.
type captureHandler struct {
	inner   slog.Handler
	log     *recentLog
	attrs   []slog.Attr
	grouped bool
}

func (h *captureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		e := LogEntry{Time: r.Time, Level: r.Level, Message: r.Message}
		for _, a := range h.attrs {
			lift(&e, a)
		}
		if !h.grouped {
			r.Attrs(func(a slog.Attr) bool {
				lift(&e, a)
				return true
			})
		}
		h.log.add(e)
	}
	return h.inner.Handle(ctx, r)
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.attrs
	if !h.grouped {
		bound = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
		bound = append(bound, h.attrs...)
		bound = append(bound, attrs...)
	}
	return &captureHandler{inner: h.inner.WithAttrs(attrs), log: h.log, attrs: bound, grouped: h.grouped}
}

// WithGroup nests later attributes, so they are no longer lifted.
func (h *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{inner: h.inner.WithGroup(name), log: h.log, attrs: h.attrs, grouped: true}
}

func lift(e *LogEntry, a slog.Attr) {
	switch a.Key {
	case "connection":
		e.Connection = a.Value.Resolve().String()
	case "error":
		e.Error = a.Value.Resolve().String()
	}
}
