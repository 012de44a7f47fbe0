package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/civicpulse/backend/internal/models"
)

// Recommendation risk and confidence levels.
const (
	LevelLow    = "Low"
	LevelMedium = "Medium"
	LevelHigh   = "High"
)

// Recommendation is the unified per-ticket triage suggestion fusing the SLA
// risk assessment with whatever external signals are available. It is never
// persisted by the engine.
type Recommendation struct {
	TicketID                string   `json:"ticket_id"`
	PriorityLevel           string   `json:"priority_level"`
	UrgencyAction           string   `json:"urgency_action"`
	RiskLevel               string   `json:"risk_level"`
	DepartmentSuggestions   []string `json:"department_suggestions"`
	EstimatedResolutionTime string   `json:"estimated_resolution_time"`
	ActionItems             []string `json:"action_items"`
	SimilarCases            int      `json:"similar_cases"`
	ConfidenceLevel         string   `json:"confidence_level"`
}

var priorityVotes = map[string]float64{
	models.UrgencyLow:      1,
	models.UrgencyMedium:   2,
	models.UrgencyHigh:     3,
	models.UrgencyCritical: 4,
}

var resolutionEstimates = map[string]string{
	models.UrgencyCritical: "1-2 business days",
	models.UrgencyHigh:     "2-3 business days",
	models.UrgencyMedium:   "3-5 business days",
	models.UrgencyLow:      "1-2 weeks",
}

// Recommend fuses the ticket's risk assessment with the optional provider
// signals into one deterministic recommendation. Absent signals are simply
// omitted from the vote and lower the reported confidence; nothing here
// performs I/O.
func Recommend(t models.Ticket, risk RiskAssessment, signals models.Signals, mapping DepartmentMap) Recommendation {
	rec := Recommendation{
		TicketID:      t.ID,
		PriorityLevel: models.UrgencyMedium,
		UrgencyAction: "Standard processing",
		RiskLevel:     LevelLow,
	}

	var votes []float64
	var confidences []float64

	if signals.MLPriority != "" {
		if v, ok := priorityVotes[signals.MLPriority]; ok {
			votes = append(votes, v)
		} else {
			votes = append(votes, priorityVotes[models.UrgencyMedium])
		}
		confidences = append(confidences, signals.MLConfidence)
	}

	switch t.Sentiment {
	case models.SentimentNegative:
		votes = append(votes, 3)
		confidences = append(confidences, 1)
	case models.SentimentPositive:
		votes = append(votes, 1)
		confidences = append(confidences, 1)
	case models.SentimentNeutral:
		confidences = append(confidences, 1)
	}

	// The risk assessment is always present; the provider may refine its
	// probability upward.
	breachProb := risk.BreachProbability
	if signals.BreachProbability != nil && *signals.BreachProbability > breachProb {
		breachProb = *signals.BreachProbability
	}
	confidences = append(confidences, 1)
	switch {
	case breachProb > 0.7:
		votes = append(votes, 4)
		rec.RiskLevel = LevelHigh
	case breachProb > 0.4:
		votes = append(votes, 3)
		rec.RiskLevel = LevelMedium
	}

	if len(votes) > 0 {
		var sum float64
		for _, v := range votes {
			sum += v
		}
		avg := sum / float64(len(votes))
		switch {
		case avg >= 3.5:
			rec.PriorityLevel = models.UrgencyCritical
			rec.UrgencyAction = "Immediate attention required"
		case avg >= 2.5:
			rec.PriorityLevel = models.UrgencyHigh
			rec.UrgencyAction = "Expedited processing"
		case avg >= 1.5:
			rec.PriorityLevel = models.UrgencyMedium
			rec.UrgencyAction = "Standard processing"
		default:
			rec.PriorityLevel = models.UrgencyLow
			rec.UrgencyAction = "Standard processing"
		}
	}

	departments := map[string]struct{}{}
	if t.Category != "" {
		departments[mapping.Department(t.Category)] = struct{}{}
	}
	if dept := strings.TrimSpace(signals.LLMDepartment); dept != "" {
		departments[dept] = struct{}{}
	}
	for dept := range departments {
		rec.DepartmentSuggestions = append(rec.DepartmentSuggestions, dept)
	}
	sort.Strings(rec.DepartmentSuggestions)

	rec.EstimatedResolutionTime = resolutionEstimates[rec.PriorityLevel]

	if rec.PriorityLevel == models.UrgencyCritical || rec.PriorityLevel == models.UrgencyHigh {
		rec.ActionItems = append(rec.ActionItems,
			"Assign dedicated staff immediately",
			"Schedule follow-up within 24 hours")
	}
	if rec.RiskLevel == LevelHigh {
		rec.ActionItems = append(rec.ActionItems,
			"Monitor SLA compliance closely",
			"Prepare escalation procedures")
	}
	if signals.SimilarTickets != nil {
		rec.SimilarCases = *signals.SimilarTickets
		confidences = append(confidences, 1)
		if rec.SimilarCases > 2 {
			rec.ActionItems = append(rec.ActionItems,
				fmt.Sprintf("Review %d similar cases for systemic issues", rec.SimilarCases))
		}
	}

	rec.ConfidenceLevel = confidenceLevel(confidences)
	return rec
}

// confidenceLevel averages the per-signal confidence contributions and
// buckets them. With no signals at all it reports Low via the 0.5 default.
func confidenceLevel(confidences []float64) string {
	avg := 0.5
	if len(confidences) > 0 {
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		avg = sum / float64(len(confidences))
	}
	switch {
	case avg >= 0.8:
		return LevelHigh
	case avg >= 0.6:
		return LevelMedium
	default:
		return LevelLow
	}
}
