package logging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
)

// AttrsFunc returns attributes computed at log time, such as the number of
// connected clients.
type AttrsFunc func() []slog.Attr

type ctxAttrsKey struct{}

// ContextWith returns a copy of ctx carrying attrs. Records logged with the
// returned context through a ContextHandler get them appended.
func ContextWith(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(prev)+len(attrs))
	merged = append(append(merged, prev...), attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

// ContextHandler appends attributes from the record context and from an
// optional AttrsFunc before delegating.
type ContextHandler struct {
	inner slog.Handler
	attrs AttrsFunc
}

// NewContextHandler wraps inner. attrs may be nil.
func NewContextHandler(inner slog.Handler, attrs AttrsFunc) *ContextHandler {
	return &ContextHandler{inner: inner, attrs: attrs}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if attrs, ok := ctx.Value(ctxAttrsKey{}).([]slog.Attr); ok {
			r.AddAttrs(attrs...)
		}
	}
	if h.attrs != nil {
		r.AddAttrs(h.attrs()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), attrs: h.attrs}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), attrs: h.attrs}
}

// MultiHandler sends every record to each sink that accepts its level: the
// console or log file, and Graylog when enabled. A failing sink does not
// keep the record from the others.
type MultiHandler struct {
	sinks []slog.Handler
}

// NewMultiHandler builds a MultiHandler over the non-nil sinks.
func NewMultiHandler(sinks ...slog.Handler) *MultiHandler {
	return &MultiHandler{sinks: lo.Filter(sinks, func(h slog.Handler, _ int) bool { return h != nil })}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return lo.SomeBy(m.sinks, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

// Handle returns the joined errors of the failing sinks.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.sinks {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) each(fn func(slog.Handler) slog.Handler) *MultiHandler {
	return &MultiHandler{sinks: lo.Map(m.sinks, func(h slog.Handler, _ int) slog.Handler { return fn(h) })}
}
