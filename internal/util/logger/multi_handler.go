package logger

import (
	"context"
	"log/slog"
)

type MultiHandler struct {
	stdoutHandler slog.Handler
	outputBuffer  *OutputBuffer
}

func NewMultiHandler(
	stdoutHandler slog.Handler,
	outputBuffer *OutputBuffer,
) *MultiHandler {
	return &MultiHandler{
		stdoutHandler: stdoutHandler,
		outputBuffer:  outputBuffer,
	}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stdoutHandler.Enabled(ctx, level)
}

func (h *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	// Send to stdout handler
	if err := h.stdoutHandler.Handle(ctx, record); err != nil {
		return err
	}

	// Send to the in-memory buffer if configured
	if h.outputBuffer != nil {
		attrs := make(map[string]interface{})
		record.Attrs(func(a slog.Attr) bool {
			attrs[a.Key] = a.Value.Any()
			return true
		})

		h.outputBuffer.Write(record.Level.String(), record.Message, attrs)
	}

	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &MultiHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		outputBuffer:  h.outputBuffer,
	}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return &MultiHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		outputBuffer:  h.outputBuffer,
	}
}
