package models

import (
	"encoding/json"
	"time"
)

// Ticket statuses. Transitions are New -> InReview -> InProgress ->
// {Resolved, Closed}; the analytics engine only reads status, it never
// mutates a ticket.
const (
	StatusNew        = "New"
	StatusInReview   = "InReview"
	StatusInProgress = "InProgress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
)

// Urgency tiers. Urgency drives the SLA target.
const (
	UrgencyLow      = "Low"
	UrgencyMedium   = "Medium"
	UrgencyHigh     = "High"
	UrgencyCritical = "Critical"
)

// Sentiment labels supplied by the external NLP provider.
const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// Ticket is one citizen submission. Sentiment, category and coordinates
// come from upstream enrichment and are consumed here as plain values.
type Ticket struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	Status         string          `json:"status"`
	Urgency        string          `json:"urgency"`
	Category       string          `json:"category"`
	Area           string          `json:"area"`
	Lat            *float64        `json:"lat,omitempty"`
	Lon            *float64        `json:"lon,omitempty"`
	Sentiment      string          `json:"sentiment"`
	SentimentScore float64         `json:"sentiment_score"`
	Message        string          `json:"message"`
	RawJSON        json.RawMessage `json:"raw_json,omitempty"`
}

// IsOpen reports whether the ticket still counts against its SLA.
func (t Ticket) IsOpen() bool {
	switch t.Status {
	case StatusNew, StatusInReview, StatusInProgress:
		return true
	}
	return false
}

// IsResolved reports whether the ticket reached a terminal status.
func (t Ticket) IsResolved() bool {
	return t.Status == StatusResolved || t.Status == StatusClosed
}

// Signals carries the optional per-ticket outputs of external ML/LLM
// providers. Every field may be absent; consumers degrade gracefully and
// lower their reported confidence instead of failing.
type Signals struct {
	MLPriority        string   `json:"ml_priority,omitempty"`
	MLConfidence      float64  `json:"ml_confidence,omitempty"`
	BreachProbability *float64 `json:"breach_probability,omitempty"`
	SimilarTickets    *int     `json:"similar_tickets,omitempty"`
	LLMDepartment     string   `json:"llm_department,omitempty"`
	ModelVersion      string   `json:"model_version,omitempty"`
}

// Run records one persisted analytics engine execution.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"`
	Summary    []byte     `json:"summary"`
}
