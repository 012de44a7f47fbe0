package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/backend/internal/models"
)

func dayTicket(day time.Time, category, sentiment string) models.Ticket {
	return models.Ticket{
		ID:        "FB-x",
		CreatedAt: day,
		Status:    models.StatusNew,
		Urgency:   models.UrgencyMedium,
		Category:  category,
		Sentiment: sentiment,
	}
}

func TestAnalyzeTrends_Empty(t *testing.T) {
	report := AnalyzeTrends(nil, GranularityDaily, 0)

	assert.Equal(t, "No data available for trend analysis", report.Summary)
	assert.Zero(t, report.GrowthRatePct)
	assert.Empty(t, report.Forecast)
	assert.Empty(t, report.TotalCounts)
}

func TestAnalyzeTrends_ZeroFillsGaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tickets := []models.Ticket{
		dayTicket(base, "Noise", models.SentimentNeutral),
		dayTicket(base.AddDate(0, 0, 3), "Noise", models.SentimentNeutral),
	}

	report := AnalyzeTrends(tickets, GranularityDaily, 1)

	require.Len(t, report.TotalCounts, 4)
	assert.Equal(t, []int{1, 0, 0, 1}, counts(report.TotalCounts))
	assert.Equal(t, "2026-03-01", report.TotalCounts[0].Label)
	assert.Equal(t, "2026-03-04", report.TotalCounts[3].Label)
}

func TestAnalyzeTrends_GrowthFromZeroIs100(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tickets := []models.Ticket{
		dayTicket(base, "Noise", ""),
		dayTicket(base.AddDate(0, 0, 2), "Noise", ""),
	}

	report := AnalyzeTrends(tickets, GranularityDaily, 1)
	// Series is [1, 0, 1]; previous bucket zero, last non-zero.
	assert.Equal(t, 100.0, report.GrowthRatePct)
}

func TestAnalyzeTrends_ForecastMovingAverage(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var tickets []models.Ticket
	for day, n := range map[int]int{0: 2, 1: 4, 2: 6} {
		for i := 0; i < n; i++ {
			tickets = append(tickets, dayTicket(base.AddDate(0, 0, day), "Roads", ""))
		}
	}

	report := AnalyzeTrends(tickets, GranularityDaily, 2)

	require.Len(t, report.Forecast, 2)
	assert.Equal(t, 4.0, report.Forecast[0].Predicted)
	assert.Equal(t, "2026-03-04", report.Forecast[0].Label)
	assert.Equal(t, "2026-03-05", report.Forecast[1].Label)
	assert.Contains(t, report.Summary, "increasing")
}

func TestAnalyzeTrends_WeeklyBucketsStartMonday(t *testing.T) {
	wednesday := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	require.Equal(t, time.Wednesday, wednesday.Weekday())

	report := AnalyzeTrends([]models.Ticket{dayTicket(wednesday, "", "")}, GranularityWeekly, 1)

	require.Len(t, report.TotalCounts, 1)
	assert.Equal(t, "2026-03-02", report.TotalCounts[0].Label)
	assert.Equal(t, time.Monday, report.TotalCounts[0].Period.Weekday())
}

func TestAnalyzeTrends_MonthlyLabels(t *testing.T) {
	jan := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	report := AnalyzeTrends([]models.Ticket{
		dayTicket(jan, "", ""), dayTicket(mar, "", ""),
	}, GranularityMonthly, 1)

	require.Len(t, report.TotalCounts, 3)
	assert.Equal(t, "2026-01", report.TotalCounts[0].Label)
	assert.Equal(t, "2026-02", report.TotalCounts[1].Label)
	assert.Equal(t, 0, report.TotalCounts[1].Count)
}

func TestAnalyzeTrends_SkipsZeroTimestamps(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tickets := []models.Ticket{
		dayTicket(base, "Noise", models.SentimentNegative),
		{ID: "FB-bad", Status: models.StatusNew},
	}

	report := AnalyzeTrends(tickets, GranularityDaily, 1)

	assert.Equal(t, 1, report.SkippedRecords)
	require.Len(t, report.TotalCounts, 1)
	assert.Len(t, report.SentimentTrends[models.SentimentNegative], 1)
}

func TestAnalyzeTrends_TopCategoriesCapped(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var tickets []models.Ticket
	for _, c := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		tickets = append(tickets, dayTicket(base, c, ""))
	}

	report := AnalyzeTrends(tickets, GranularityDaily, 1)
	assert.Len(t, report.CategoryTrends, 5)
}

func counts(series []TrendPoint) []int {
	out := make([]int, len(series))
	for i, p := range series {
		out[i] = p.Count
	}
	return out
}
