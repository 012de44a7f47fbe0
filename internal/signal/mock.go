package signal

import (
	"context"
	"time"

	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/utils"
)

// MockProvider derives stable pseudo-signals from the ticket ID hash so
// local development and tests behave deterministically without the external
// ML service.
type MockProvider struct {
	ModelVersion string
}

func (m MockProvider) Signals(ctx context.Context, t models.Ticket) (models.Signals, int64, error) {
	start := time.Now()
	h := utils.HashStringToUint64(t.ID)

	priorities := []string{
		models.UrgencyLow,
		models.UrgencyMedium,
		models.UrgencyMedium,
		models.UrgencyHigh,
		models.UrgencyCritical,
	}
	departments := []string{"Public Works", "Environmental Services", "Public Safety", ""}

	confidence := 0.75
	if h%5 == 0 {
		confidence = 0.62
	}
	similar := int(h / 11 % 5)
	breachProb := float64(h/19%100) / 100

	signals := models.Signals{
		MLPriority:        priorities[h%uint64(len(priorities))],
		MLConfidence:      confidence,
		BreachProbability: &breachProb,
		SimilarTickets:    &similar,
		LLMDepartment:     departments[h/7%uint64(len(departments))],
		ModelVersion:      m.ModelVersion,
	}
	return signals, time.Since(start).Milliseconds(), nil
}
