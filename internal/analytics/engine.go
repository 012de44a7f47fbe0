package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/civicpulse/backend/internal/models"
)

// Engine bundles the injected configuration for the four analyzers and the
// recommendation aggregator. It holds no state across invocations.
type Engine struct {
	Policy      SLAPolicy
	Departments DepartmentMap
	Logger      zerolog.Logger
}

// Report is one full engine run over a ticket snapshot.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	TicketCount int              `json:"ticket_count"`
	Trends      TrendReport      `json:"trends"`
	SLA         SLAReport        `json:"sla"`
	Hotspots    HotspotReport    `json:"hotspots"`
	Departments DepartmentReport `json:"departments"`
	Insights    []string         `json:"insights"`
}

// Run executes the four independent analyzers in parallel over the snapshot.
// They are pure and read-only, so no locking is needed; errgroup is used for
// the fan-out and context plumbing.
func (e Engine) Run(ctx context.Context, tickets []models.Ticket, now time.Time, granularity string) (Report, error) {
	report := Report{GeneratedAt: now, TicketCount: len(tickets)}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Trends = AnalyzeTrends(tickets, granularity, DefaultForecastPeriods)
		return nil
	})
	g.Go(func() error {
		report.SLA = PredictSLABreaches(tickets, now, e.Policy)
		return nil
	})
	g.Go(func() error {
		report.Hotspots = RankHotspots(tickets, DefaultHotspotLimit)
		return nil
	})
	g.Go(func() error {
		report.Departments = ScoreDepartments(tickets, e.Departments, e.Policy)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report.Insights = bulkInsights(tickets)
	e.Logger.Info().
		Int("tickets", len(tickets)).
		Int("breached", report.SLA.BreachCount).
		Int("at_risk", report.SLA.AtRiskCount).
		Int("hotspots", len(report.Hotspots.Hotspots)).
		Msg("analytics report generated")
	return report, nil
}

// RecommendTicket assesses one ticket against its SLA and fuses the supplied
// signals into a recommendation.
func (e Engine) RecommendTicket(t models.Ticket, now time.Time, signals models.Signals) Recommendation {
	risk := AssessTicket(t, now, e.Policy)
	return Recommend(t, risk, signals, e.Departments)
}

// RecommendAll produces a recommendation per ticket using a bounded worker
// fan-out; recommendations are independent across tickets.
func (e Engine) RecommendAll(ctx context.Context, tickets []models.Ticket, now time.Time, signalsFor func(models.Ticket) models.Signals, workers int) ([]Recommendation, error) {
	if workers <= 0 {
		workers = 4
	}
	out := make([]Recommendation, len(tickets))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range tickets {
		i, t := i, t
		g.Go(func() error {
			var signals models.Signals
			if signalsFor != nil {
				signals = signalsFor(t)
			}
			out[i] = e.RecommendTicket(t, now, signals)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// bulkInsights derives collection-level observations: urgency pressure, the
// dominant category, and the overall sentiment balance.
func bulkInsights(tickets []models.Ticket) []string {
	if len(tickets) == 0 {
		return nil
	}
	total := len(tickets)

	urgent := 0
	negative := 0
	categories := map[string]int{}
	for _, t := range tickets {
		if t.Urgency == models.UrgencyHigh || t.Urgency == models.UrgencyCritical {
			urgent++
		}
		if t.Sentiment == models.SentimentNegative {
			negative++
		}
		if t.Category != "" {
			categories[t.Category]++
		}
	}

	var insights []string
	if float64(urgent)/float64(total) > 0.3 {
		insights = append(insights, "High volume of urgent feedback - consider resource reallocation")
	}
	if top := dominantCategory(categories); top != "" {
		insights = append(insights, fmt.Sprintf("Focus on %s issues - highest volume category", top))
	}
	negFraction := float64(negative) / float64(total)
	if negFraction > 0.5 {
		insights = append(insights, "High negative sentiment - review service quality")
	} else if negFraction < 0.2 {
		insights = append(insights, "Generally positive feedback - maintain good service")
	}
	if len(insights) == 0 {
		insights = append(insights, "Feedback patterns look normal - continue standard operations")
	}
	return insights
}

func dominantCategory(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] == counts[categories[j]] {
			return categories[i] < categories[j]
		}
		return counts[categories[i]] > counts[categories[j]]
	})
	return categories[0]
}
