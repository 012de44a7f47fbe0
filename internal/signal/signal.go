package signal

import (
	"context"

	"github.com/civicpulse/backend/internal/models"
)

// Provider supplies optional per-ticket ML/LLM signals. Implementations
// resolve any network calls before the recommendation aggregator runs; a
// failed lookup must degrade to empty signals at the call site, never block
// the analytics computation.
type Provider interface {
	Signals(ctx context.Context, t models.Ticket) (models.Signals, int64, error)
}
