package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/civicpulse/backend/internal/models"
)

// Bucket granularities accepted by AnalyzeTrends.
const (
	GranularityDaily   = "daily"
	GranularityWeekly  = "weekly"
	GranularityMonthly = "monthly"
)

// DefaultForecastPeriods is the number of future buckets projected when the
// caller does not ask for a specific horizon.
const DefaultForecastPeriods = 4

// TrendPoint is one time bucket in an ordered series.
type TrendPoint struct {
	Period time.Time `json:"period"`
	Label  string    `json:"label"`
	Count  int       `json:"count"`
}

// ForecastPoint is one projected future bucket.
type ForecastPoint struct {
	Label     string  `json:"period"`
	Predicted float64 `json:"predicted_value"`
}

// TrendReport is the output of AnalyzeTrends.
type TrendReport struct {
	Granularity     string                  `json:"granularity"`
	TotalCounts     []TrendPoint            `json:"total_counts"`
	SentimentTrends map[string][]TrendPoint `json:"sentiment_trends"`
	CategoryTrends  map[string][]TrendPoint `json:"category_trends"`
	GrowthRatePct   float64                 `json:"growth_rate_pct"`
	Forecast        []ForecastPoint         `json:"forecast"`
	Summary         string                  `json:"summary"`
	SkippedRecords  int                     `json:"skipped_records"`
}

// AnalyzeTrends buckets submissions by creation time and derives growth,
// per-sentiment and top-category series, and a moving-average forecast.
// Tickets without a usable created_at are skipped and counted, never fatal.
func AnalyzeTrends(tickets []models.Ticket, granularity string, forecastPeriods int) TrendReport {
	if granularity != GranularityDaily && granularity != GranularityMonthly {
		granularity = GranularityWeekly
	}
	if forecastPeriods <= 0 {
		forecastPeriods = DefaultForecastPeriods
	}

	report := TrendReport{
		Granularity:     granularity,
		SentimentTrends: map[string][]TrendPoint{},
		CategoryTrends:  map[string][]TrendPoint{},
	}

	var usable []models.Ticket
	for _, t := range tickets {
		if t.CreatedAt.IsZero() {
			report.SkippedRecords++
			continue
		}
		usable = append(usable, t)
	}
	if len(usable) == 0 {
		report.Summary = "No data available for trend analysis"
		return report
	}

	total := map[time.Time]int{}
	bySentiment := map[string]map[time.Time]int{}
	byCategory := map[string]map[time.Time]int{}
	categoryVolume := map[string]int{}
	for _, t := range usable {
		b := floorToBucket(t.CreatedAt.UTC(), granularity)
		total[b]++
		if t.Sentiment != "" {
			if bySentiment[t.Sentiment] == nil {
				bySentiment[t.Sentiment] = map[time.Time]int{}
			}
			bySentiment[t.Sentiment][b]++
		}
		if t.Category != "" {
			if byCategory[t.Category] == nil {
				byCategory[t.Category] = map[time.Time]int{}
			}
			byCategory[t.Category][b]++
			categoryVolume[t.Category]++
		}
	}

	buckets := bucketSpan(total, granularity)
	report.TotalCounts = seriesFor(total, buckets, granularity)
	for sentiment, counts := range bySentiment {
		report.SentimentTrends[sentiment] = seriesFor(counts, buckets, granularity)
	}
	for _, category := range topCategories(categoryVolume, 5) {
		report.CategoryTrends[category] = seriesFor(byCategory[category], buckets, granularity)
	}

	report.GrowthRatePct = growthRate(report.TotalCounts)
	report.Forecast = forecastSeries(report.TotalCounts, granularity, forecastPeriods)
	report.Summary = trendSummary(report.TotalCounts, report.GrowthRatePct)
	return report
}

// floorToBucket truncates a timestamp to the start of its bucket. Weekly
// buckets start on Monday.
func floorToBucket(ts time.Time, granularity string) time.Time {
	switch granularity {
	case GranularityDaily:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityMonthly:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	}
}

func nextBucket(b time.Time, granularity string) time.Time {
	switch granularity {
	case GranularityDaily:
		return b.AddDate(0, 0, 1)
	case GranularityMonthly:
		return b.AddDate(0, 1, 0)
	default:
		return b.AddDate(0, 0, 7)
	}
}

func bucketLabel(b time.Time, granularity string) string {
	if granularity == GranularityMonthly {
		return b.Format("2006-01")
	}
	return b.Format("2006-01-02")
}

// bucketSpan returns every bucket between the earliest and latest observed
// bucket, inclusive. Gaps count as zero so that growth and forecasting see a
// contiguous series.
func bucketSpan(counts map[time.Time]int, granularity string) []time.Time {
	if len(counts) == 0 {
		return nil
	}
	var first, last time.Time
	for b := range counts {
		if first.IsZero() || b.Before(first) {
			first = b
		}
		if b.After(last) {
			last = b
		}
	}
	var span []time.Time
	for b := first; !b.After(last); b = nextBucket(b, granularity) {
		span = append(span, b)
	}
	return span
}

func seriesFor(counts map[time.Time]int, buckets []time.Time, granularity string) []TrendPoint {
	series := make([]TrendPoint, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, TrendPoint{
			Period: b,
			Label:  bucketLabel(b, granularity),
			Count:  counts[b],
		})
	}
	return series
}

func topCategories(volume map[string]int, n int) []string {
	categories := make([]string, 0, len(volume))
	for c := range volume {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if volume[categories[i]] == volume[categories[j]] {
			return categories[i] < categories[j]
		}
		return volume[categories[i]] > volume[categories[j]]
	})
	if len(categories) > n {
		categories = categories[:n]
	}
	return categories
}

// growthRate compares the last two buckets. A previous bucket of zero counts
// as 100% growth when the last bucket is non-empty.
func growthRate(series []TrendPoint) float64 {
	if len(series) < 2 {
		return 0
	}
	last := float64(series[len(series)-1].Count)
	previous := float64(series[len(series)-2].Count)
	if previous == 0 {
		if last > 0 {
			return 100
		}
		return 0
	}
	return (last - previous) / previous * 100
}

// forecastSeries projects a simple moving average over the last
// min(3, len) buckets forward for the requested number of periods.
func forecastSeries(series []TrendPoint, granularity string, periods int) []ForecastPoint {
	if len(series) == 0 {
		return nil
	}
	window := 3
	if len(series) < window {
		window = len(series)
	}
	sum := 0
	for _, p := range series[len(series)-window:] {
		sum += p.Count
	}
	avg := math.Round(float64(sum) / float64(window))

	forecast := make([]ForecastPoint, 0, periods)
	next := series[len(series)-1].Period
	for i := 0; i < periods; i++ {
		next = nextBucket(next, granularity)
		forecast = append(forecast, ForecastPoint{
			Label:     bucketLabel(next, granularity),
			Predicted: avg,
		})
	}
	return forecast
}

func trendSummary(series []TrendPoint, growthRatePct float64) string {
	if len(series) == 0 {
		return "No data available for trend analysis"
	}
	direction := "stable"
	if growthRatePct > 5 {
		direction = "increasing"
	} else if growthRatePct < -5 {
		direction = "decreasing"
	}
	sum := 0
	for _, p := range series {
		sum += p.Count
	}
	avg := float64(sum) / float64(len(series))
	return fmt.Sprintf("Feedback volume is %s (%+.1f%%). Average: %.0f submissions per period.", direction, growthRatePct, avg)
}
