package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/civicpulse/backend/internal/models"
)

// HTTPProvider calls an external signal service over HTTP.
type HTTPProvider struct {
	BaseURL string
	Client  *http.Client
}

type requestBody struct {
	TicketID       string  `json:"ticket_id"`
	Category       string  `json:"category"`
	Urgency        string  `json:"urgency"`
	Area           string  `json:"area"`
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
	Message        string  `json:"message"`
}

type responseBody struct {
	TicketID          string   `json:"ticket_id"`
	MLPriority        string   `json:"ml_priority"`
	MLConfidence      float64  `json:"ml_confidence"`
	BreachProbability *float64 `json:"breach_probability"`
	SimilarTickets    *int     `json:"similar_tickets"`
	LLMDepartment     string   `json:"llm_department"`
	ModelVersion      string   `json:"model_version"`
}

func (h HTTPProvider) Signals(ctx context.Context, t models.Ticket) (models.Signals, int64, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 15 * time.Second}
	}

	payload := requestBody{
		TicketID:       t.ID,
		Category:       t.Category,
		Urgency:        t.Urgency,
		Area:           t.Area,
		Sentiment:      t.Sentiment,
		SentimentScore: t.SentimentScore,
		Message:        t.Message,
	}
	b, _ := json.Marshal(payload)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/signals", bytes.NewBuffer(b))
	if err != nil {
		return models.Signals{}, 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return models.Signals{}, time.Since(start).Milliseconds(), err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Signals{}, time.Since(start).Milliseconds(), errors.New("signal service error")
	}

	var r responseBody
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.Signals{}, time.Since(start).Milliseconds(), err
	}

	signals := models.Signals{
		MLPriority:        r.MLPriority,
		MLConfidence:      r.MLConfidence,
		BreachProbability: r.BreachProbability,
		SimilarTickets:    r.SimilarTickets,
		LLMDepartment:     r.LLMDepartment,
		ModelVersion:      r.ModelVersion,
	}
	return signals, time.Since(start).Milliseconds(), nil
}
