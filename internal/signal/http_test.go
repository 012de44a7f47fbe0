package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicpulse/backend/internal/models"
)

func TestHTTPProviderRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/signals" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req requestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		prob := 0.42
		similar := 2
		_ = json.NewEncoder(w).Encode(responseBody{
			TicketID:          req.TicketID,
			MLPriority:        models.UrgencyHigh,
			MLConfidence:      0.8,
			BreachProbability: &prob,
			SimilarTickets:    &similar,
			LLMDepartment:     "Utilities",
			ModelVersion:      "svc-v2",
		})
	}))
	defer srv.Close()

	p := HTTPProvider{BaseURL: srv.URL}
	signals, latency, err := p.Signals(context.Background(), models.Ticket{ID: "FB-7", Category: "Water & Sanitation"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latency < 0 {
		t.Fatalf("negative latency: %d", latency)
	}
	if signals.MLPriority != models.UrgencyHigh || signals.LLMDepartment != "Utilities" {
		t.Fatalf("unexpected signals: %+v", signals)
	}
	if signals.BreachProbability == nil || *signals.BreachProbability != 0.42 {
		t.Fatalf("unexpected breach probability: %+v", signals.BreachProbability)
	}
}

func TestHTTPProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := HTTPProvider{BaseURL: srv.URL}
	if _, _, err := p.Signals(context.Background(), models.Ticket{ID: "FB-8"}); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
