package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

const RedactionMarker = "***"

var sensitivePatterns = []*regexp.Regexp{
	// sqlcmd style: -P <password>
	regexp.MustCompile(`(-P[ \t]+)(\S+)`),
	// key=value style: password=..., pwd=... (also inside connection strings)
	regexp.MustCompile(`(?i)(password=)('[^']*'|[^;\s]+)`),
	regexp.MustCompile(`(?i)(pwd=)('[^']*'|[^;\s]+)`),
}

// SecretRegistry collects known secret values so any text passing through
// the logging chain can be scrubbed, even when a secret appears outside a
// recognized flag pattern.
type SecretRegistry struct {
	mu      sync.RWMutex
	secrets []string
}

var (
	secretRegistryOnce sync.Once
	secretRegistry     *SecretRegistry
)

func GetSecretRegistry() *SecretRegistry {
	secretRegistryOnce.Do(func() {
		secretRegistry = &SecretRegistry{}
	})

	return secretRegistry
}

// Register adds a secret value to be masked. Very short values are ignored
// to avoid scrubbing unrelated substrings.
func (r *SecretRegistry) Register(secret string) {
	if len(secret) <= 3 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.secrets {
		if existing == secret {
			return
		}
	}
	r.secrets = append(r.secrets, secret)
}

func (r *SecretRegistry) Mask(text string) string {
	if text == "" {
		return text
	}

	r.mu.RLock()
	for _, secret := range r.secrets {
		text = strings.ReplaceAll(text, secret, RedactionMarker)
	}
	r.mu.RUnlock()

	for _, pattern := range sensitivePatterns {
		text = pattern.ReplaceAllString(text, "${1}"+RedactionMarker)
	}

	return text
}

// MaskingHandler rewrites secrets in messages and attribute values before
// records reach any sink. Credentials never leave the process in clear text.
type MaskingHandler struct {
	next     slog.Handler
	registry *SecretRegistry
}

func NewMaskingHandler(next slog.Handler, registry *SecretRegistry) *MaskingHandler {
	return &MaskingHandler{
		next:     next,
		registry: registry,
	}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, h.registry.Mask(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.next.Handle(ctx, masked)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		maskedAttrs = append(maskedAttrs, h.maskAttr(a))
	}

	return &MaskingHandler{
		next:     h.next.WithAttrs(maskedAttrs),
		registry: h.registry,
	}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{
		next:     h.next.WithGroup(name),
		registry: h.registry,
	}
}

func (h *MaskingHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.registry.Mask(a.Value.String()))
	}
	return a
}
