package redact

import (
	"context"
	"log/slog"
)

// Handler wraps another slog.Handler, scrubbing credential-shaped
// strings out of every attribute value before the record reaches it.
// Wire it in once at startup (cmd/pipeline/main.go) around whatever base
// handler the process uses; every slog.With(...) call elsewhere in the
// pipeline passes through it for free.
type Handler struct {
	next     slog.Handler
	redactor *Redactor
}

// NewHandler wraps next with redaction.
func NewHandler(next slog.Handler, redactor *Redactor) *Handler {
	return &Handler{next: next, redactor: redactor}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	cleaned := slog.NewRecord(record.Time, record.Level, h.redactor.String(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		cleaned.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, cleaned)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleaned[i] = h.redactAttr(a)
	}
	return &Handler{next: h.next.WithAttrs(cleaned), redactor: h.redactor}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), redactor: h.redactor}
}

// redactAttr scrubs a single attribute's value, recursing into groups.
func (h *Handler) redactAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactor.String(a.Value.String()))
	case slog.KindGroup:
		members := a.Value.Group()
		cleaned := make([]any, 0, len(members))
		for _, m := range members {
			cleaned = append(cleaned, h.redactAttr(m))
		}
		return slog.Group(a.Key, cleaned...)
	default:
		return a
	}
}
