package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/civicpulse/backend/internal/models"
)

// Department workload trend values.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDecreasing = "decreasing"
)

// SentimentDistribution counts tickets per known sentiment label.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// DepartmentMetric is the composite performance view of one department.
type DepartmentMetric struct {
	Department        string                `json:"department"`
	TotalTickets      int                   `json:"total_tickets"`
	ResolvedTickets   int                   `json:"resolved_tickets"`
	ResolutionRate    float64               `json:"resolution_rate"`
	SatisfactionScore float64               `json:"satisfaction_score"`
	AvgResponseHours  float64               `json:"avg_response_time_hours"`
	SLACompliancePct  float64               `json:"sla_compliance"`
	PerformanceScore  float64               `json:"performance_score"`
	Sentiment         SentimentDistribution `json:"sentiment_distribution"`
	Trend             string                `json:"trend"`
}

// DepartmentReport is the output of ScoreDepartments.
type DepartmentReport struct {
	Departments     []DepartmentMetric `json:"department_metrics"`
	TopPerformer    *DepartmentMetric  `json:"top_performer"`
	BottomPerformer *DepartmentMetric  `json:"bottom_performer"`
	OverallAvgScore float64            `json:"overall_avg_performance"`
	Recommendations []string           `json:"recommendations"`
	SkippedRecords  int                `json:"skipped_records"`
}

// ScoreDepartments groups tickets into departments via the injected category
// mapping and computes a composite performance score per department. SLA
// compliance and response times come from actual resolution timestamps;
// resolved tickets missing resolved_at are skipped and counted.
func ScoreDepartments(tickets []models.Ticket, mapping DepartmentMap, policy SLAPolicy) DepartmentReport {
	report := DepartmentReport{}

	byDept := map[string][]models.Ticket{}
	for _, t := range tickets {
		dept := mapping.Department(t.Category)
		byDept[dept] = append(byDept[dept], t)
	}
	if len(byDept) == 0 {
		return report
	}

	for dept, deptTickets := range byDept {
		metric, skipped := scoreDepartment(dept, deptTickets, policy)
		report.Departments = append(report.Departments, metric)
		report.SkippedRecords += skipped
	}

	sort.Slice(report.Departments, func(i, j int) bool {
		di, dj := report.Departments[i], report.Departments[j]
		if di.PerformanceScore == dj.PerformanceScore {
			return di.Department < dj.Department
		}
		return di.PerformanceScore > dj.PerformanceScore
	})

	report.TopPerformer = &report.Departments[0]
	if len(report.Departments) > 1 {
		report.BottomPerformer = &report.Departments[len(report.Departments)-1]
	}

	var sum float64
	for _, d := range report.Departments {
		sum += d.PerformanceScore
	}
	report.OverallAvgScore = sum / float64(len(report.Departments))

	report.Recommendations = departmentRecommendations(report.Departments)
	return report
}

func scoreDepartment(dept string, tickets []models.Ticket, policy SLAPolicy) (DepartmentMetric, int) {
	m := DepartmentMetric{Department: dept, TotalTickets: len(tickets)}
	skipped := 0

	for _, t := range tickets {
		if t.IsResolved() {
			m.ResolvedTickets++
		}
		switch t.Sentiment {
		case models.SentimentPositive:
			m.Sentiment.Positive++
		case models.SentimentNeutral:
			m.Sentiment.Neutral++
		case models.SentimentNegative:
			m.Sentiment.Negative++
		}
	}
	m.ResolutionRate = float64(m.ResolvedTickets) / float64(m.TotalTickets) * 100
	m.SatisfactionScore = satisfactionScore(m.Sentiment)

	// Response time and SLA compliance over tickets with a real resolution
	// timestamp.
	var responseSum float64
	var resolvedSample, withinTarget int
	for _, t := range tickets {
		if !t.IsResolved() {
			continue
		}
		if t.ResolvedAt == nil || t.CreatedAt.IsZero() || t.ResolvedAt.Before(t.CreatedAt) {
			skipped++
			continue
		}
		hours := t.ResolvedAt.Sub(t.CreatedAt).Hours()
		responseSum += hours
		resolvedSample++
		if hours <= policy.TargetHours(t.Urgency) {
			withinTarget++
		}
	}
	if resolvedSample > 0 {
		m.AvgResponseHours = responseSum / float64(resolvedSample)
		m.SLACompliancePct = float64(withinTarget) / float64(resolvedSample) * 100
	} else {
		// No resolutions yet: neutral compliance score rather than zero.
		m.SLACompliancePct = 50
	}

	m.PerformanceScore = performanceScore(m.ResolutionRate, m.SatisfactionScore, m.SLACompliancePct, m.AvgResponseHours)
	m.Trend = departmentTrend(tickets)
	return m, skipped
}

// satisfactionScore weighs positive=100, neutral=50, negative=0 over tickets
// with a known sentiment; 50.0 when no sentiment data exists.
func satisfactionScore(dist SentimentDistribution) float64 {
	total := dist.Positive + dist.Neutral + dist.Negative
	if total == 0 {
		return 50
	}
	return float64(dist.Positive*100+dist.Neutral*50) / float64(total)
}

func performanceScore(resolutionRate, satisfaction, slaCompliance, avgResponseHours float64) float64 {
	responsePenalty := math.Min(avgResponseHours/24*10, 100)
	score := resolutionRate*0.3 +
		satisfaction*0.3 +
		slaCompliance*0.25 +
		(100-responsePenalty)*0.15
	return math.Max(0, math.Min(100, score))
}

// departmentTrend splits the department's observed time span in half and
// compares volumes: more than +15% in the recent half is increasing, less
// than -15% is decreasing.
func departmentTrend(tickets []models.Ticket) string {
	var timed []models.Ticket
	for _, t := range tickets {
		if !t.CreatedAt.IsZero() {
			timed = append(timed, t)
		}
	}
	if len(timed) < 2 {
		return TrendStable
	}
	sort.Slice(timed, func(i, j int) bool { return timed[i].CreatedAt.Before(timed[j].CreatedAt) })

	first := timed[0].CreatedAt
	last := timed[len(timed)-1].CreatedAt
	if !last.After(first) {
		return TrendStable
	}
	midpoint := first.Add(last.Sub(first) / 2)

	var older, recent float64
	for _, t := range timed {
		if t.CreatedAt.After(midpoint) {
			recent++
		} else {
			older++
		}
	}
	if older == 0 {
		return TrendIncreasing
	}
	switch {
	case recent > older*1.15:
		return TrendIncreasing
	case recent < older*0.85:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func departmentRecommendations(departments []DepartmentMetric) []string {
	if len(departments) == 0 {
		return []string{"No department data available"}
	}
	top := departments[0]
	recs := []string{fmt.Sprintf("Best performer: %s (Score: %.1f)", top.Department, top.PerformanceScore)}

	if len(departments) > 1 {
		bottom := departments[len(departments)-1]
		if bottom.PerformanceScore < 50 {
			recs = append(recs, fmt.Sprintf("%s needs improvement (Score: %.1f)", bottom.Department, bottom.PerformanceScore))
		}
	}

	lowSLA := 0
	lowSatisfaction := 0
	for _, d := range departments {
		if d.SLACompliancePct < 75 {
			lowSLA++
		}
		if d.SatisfactionScore < 50 {
			lowSatisfaction++
		}
	}
	if lowSLA > 0 {
		recs = append(recs, fmt.Sprintf("%d department(s) below 75%% SLA compliance", lowSLA))
	}
	if lowSatisfaction > 0 {
		recs = append(recs, fmt.Sprintf("%d department(s) with low satisfaction scores", lowSatisfaction))
	}
	return recs
}
