package cleanup

import (
	"crypto/subtle"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
)

// ConfirmationPhrase must be typed exactly, case sensitive, to unlock the
// cleanup workflow.
const ConfirmationPhrase = "CONFIRM DANGER ZONE"

// ConfirmationGate turns the typed phrase into a single-use token. A token
// authorizes exactly one cleanup; reusing it fails.
type ConfirmationGate struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]struct{}
	logger *slog.Logger
}

func NewConfirmationGate(logger *slog.Logger) *ConfirmationGate {
	return &ConfirmationGate{
		tokens: make(map[uuid.UUID]struct{}),
		logger: logger,
	}
}

// Issue validates the phrase and returns a fresh token.
func (g *ConfirmationGate) Issue(phrase string) (uuid.UUID, error) {
	if subtle.ConstantTimeCompare([]byte(phrase), []byte(ConfirmationPhrase)) != 1 {
		g.logger.Warn("Rejected cleanup confirmation, phrase mismatch")
		return uuid.Nil, operations.ValidationError("confirmation phrase does not match")
	}

	token := uuid.New()

	g.mu.Lock()
	g.tokens[token] = struct{}{}
	g.mu.Unlock()

	g.logger.Info("Issued cleanup confirmation token", "token", token)
	return token, nil
}

// Consume redeems a token. Each token works exactly once.
func (g *ConfirmationGate) Consume(token uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.tokens[token]; !ok {
		return false
	}

	delete(g.tokens, token)
	return true
}
