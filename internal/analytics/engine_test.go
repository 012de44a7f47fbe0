package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/backend/internal/models"
)

func testEngine() Engine {
	return Engine{
		Policy:      DefaultSLAPolicy(),
		Departments: DefaultDepartmentMap(),
		Logger:      zerolog.Nop(),
	}
}

func TestEngineRun_FullReport(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var tickets []models.Ticket
	for i := 0; i < 6; i++ {
		tck := ticketAt("FB-o", models.UrgencyCritical, 10*time.Hour, now)
		tck.Category = "Public Safety"
		tck.Area = "Downtown"
		tck.Sentiment = models.SentimentNegative
		tickets = append(tickets, tck)
	}
	resolvedAt := now.Add(-time.Hour)
	tickets = append(tickets, models.Ticket{
		ID: "FB-r", CreatedAt: now.Add(-10 * time.Hour), ResolvedAt: &resolvedAt,
		Status: models.StatusResolved, Urgency: models.UrgencyHigh,
		Category: "Environment", Area: "Eastside", Sentiment: models.SentimentPositive,
	})

	report, err := testEngine().Run(context.Background(), tickets, now, GranularityDaily)
	require.NoError(t, err)

	assert.Equal(t, 7, report.TicketCount)
	assert.Equal(t, now, report.GeneratedAt)
	assert.Equal(t, 6, report.SLA.BreachCount)
	assert.NotEmpty(t, report.Trends.TotalCounts)
	assert.NotEmpty(t, report.Hotspots.Hotspots)
	assert.NotEmpty(t, report.Departments.Departments)
	assert.Contains(t, report.Insights, "High volume of urgent feedback - consider resource reallocation")
	assert.Contains(t, report.Insights, "Focus on Public Safety issues - highest volume category")
	assert.Contains(t, report.Insights, "High negative sentiment - review service quality")
}

func TestEngineRun_EmptySnapshot(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	report, err := testEngine().Run(context.Background(), nil, now, GranularityWeekly)
	require.NoError(t, err)

	assert.Zero(t, report.TicketCount)
	assert.Empty(t, report.Insights)
	assert.Equal(t, "No data available for trend analysis", report.Trends.Summary)
}

func TestEngineRecommendAll_PreservesOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var tickets []models.Ticket
	for i := 0; i < 25; i++ {
		tickets = append(tickets, ticketAt(string(rune('A'+i)), models.UrgencyMedium, time.Hour, now))
	}

	recs, err := testEngine().RecommendAll(context.Background(), tickets, now, nil, 8)
	require.NoError(t, err)

	require.Len(t, recs, len(tickets))
	for i, rec := range recs {
		assert.Equal(t, tickets[i].ID, rec.TicketID)
	}
}

func TestBulkInsights_PositiveBalance(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var tickets []models.Ticket
	for i := 0; i < 10; i++ {
		tck := ticketAt("FB-p", models.UrgencyLow, time.Hour, now)
		tck.Sentiment = models.SentimentPositive
		tickets = append(tickets, tck)
	}

	insights := bulkInsights(tickets)
	assert.Contains(t, insights, "Generally positive feedback - maintain good service")
}
