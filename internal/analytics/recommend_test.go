package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/backend/internal/models"
)

func TestRecommend_NoSignalsDefaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ticket := ticketAt("FB-1", models.UrgencyLow, time.Hour, now)
	risk := AssessTicket(ticket, now, DefaultSLAPolicy())

	rec := Recommend(ticket, risk, models.Signals{}, DefaultDepartmentMap())

	assert.Equal(t, models.UrgencyMedium, rec.PriorityLevel)
	assert.Equal(t, "Standard processing", rec.UrgencyAction)
	assert.Equal(t, LevelLow, rec.RiskLevel)
	assert.Equal(t, "3-5 business days", rec.EstimatedResolutionTime)
	assert.Empty(t, rec.ActionItems)
}

func TestRecommend_EscalatesOnBreachAndSentiment(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ticket := ticketAt("FB-2", models.UrgencyCritical, 10*time.Hour, now)
	ticket.Sentiment = models.SentimentNegative
	risk := AssessTicket(ticket, now, DefaultSLAPolicy()) // breached, probability 1

	rec := Recommend(ticket, risk, models.Signals{}, DefaultDepartmentMap())

	// Votes: sentiment 3, breach 4 -> avg 3.5 -> Critical.
	assert.Equal(t, models.UrgencyCritical, rec.PriorityLevel)
	assert.Equal(t, "Immediate attention required", rec.UrgencyAction)
	assert.Equal(t, LevelHigh, rec.RiskLevel)
	assert.Equal(t, "1-2 business days", rec.EstimatedResolutionTime)
	assert.Equal(t, []string{
		"Assign dedicated staff immediately",
		"Schedule follow-up within 24 hours",
		"Monitor SLA compliance closely",
		"Prepare escalation procedures",
	}, rec.ActionItems)
	assert.Equal(t, LevelHigh, rec.ConfidenceLevel)
}

func TestRecommend_MLVoteAndConfidence(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ticket := ticketAt("FB-3", models.UrgencyLow, time.Hour, now)
	risk := AssessTicket(ticket, now, DefaultSLAPolicy())

	signals := models.Signals{MLPriority: models.UrgencyLow, MLConfidence: 0.1}
	rec := Recommend(ticket, risk, signals, DefaultDepartmentMap())

	// Single vote of 1 -> Low priority; confidences (0.1 + 1)/2 = 0.55 -> Low.
	assert.Equal(t, models.UrgencyLow, rec.PriorityLevel)
	assert.Equal(t, "1-2 weeks", rec.EstimatedResolutionTime)
	assert.Equal(t, LevelLow, rec.ConfidenceLevel)
}

func TestRecommend_ProviderBreachProbabilityRefinesUpward(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ticket := ticketAt("FB-4", models.UrgencyLow, time.Hour, now)
	risk := AssessTicket(ticket, now, DefaultSLAPolicy()) // tiny probability

	prob := 0.85
	rec := Recommend(ticket, risk, models.Signals{BreachProbability: &prob}, DefaultDepartmentMap())

	assert.Equal(t, LevelHigh, rec.RiskLevel)
	// Single vote of 4 -> Critical.
	assert.Equal(t, models.UrgencyCritical, rec.PriorityLevel)
}

func TestRecommend_DepartmentUnionSorted(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ticket := ticketAt("FB-5", models.UrgencyMedium, time.Hour, now)
	ticket.Category = "Roads & Transportation"
	risk := AssessTicket(ticket, now, DefaultSLAPolicy())

	rec := Recommend(ticket, risk, models.Signals{LLMDepartment: " Public Works "}, DefaultDepartmentMap())

	assert.Equal(t, []string{"Infrastructure", "Public Works"}, rec.DepartmentSuggestions)
}

func TestRecommend_SimilarCases(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ticket := ticketAt("FB-6", models.UrgencyLow, time.Hour, now)
	risk := AssessTicket(ticket, now, DefaultSLAPolicy())

	similar := 4
	rec := Recommend(ticket, risk, models.Signals{SimilarTickets: &similar}, DefaultDepartmentMap())

	assert.Equal(t, 4, rec.SimilarCases)
	assert.Contains(t, rec.ActionItems, "Review 4 similar cases for systemic issues")
}

func TestRecommend_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ticket := ticketAt("FB-7", models.UrgencyHigh, 20*time.Hour, now)
	ticket.Category = "Water & Sanitation"
	ticket.Sentiment = models.SentimentNegative
	risk := AssessTicket(ticket, now, DefaultSLAPolicy())

	similar := 3
	prob := 0.6
	signals := models.Signals{
		MLPriority:        models.UrgencyHigh,
		MLConfidence:      0.9,
		BreachProbability: &prob,
		SimilarTickets:    &similar,
		LLMDepartment:     "Utilities",
	}

	first := Recommend(ticket, risk, signals, DefaultDepartmentMap())
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Recommend(ticket, risk, signals, DefaultDepartmentMap()))
	}
}
