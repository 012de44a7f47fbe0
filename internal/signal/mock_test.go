package signal

import (
	"context"
	"testing"

	"github.com/civicpulse/backend/internal/models"
)

func TestMockProviderDeterministic(t *testing.T) {
	p := MockProvider{ModelVersion: "mock-v1"}
	ticket := models.Ticket{ID: "FB-1234", Category: "Roads & Transportation"}

	first, _, err := p.Signals(context.Background(), ticket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, _, err := p.Signals(context.Background(), ticket)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.MLPriority != first.MLPriority ||
			next.MLConfidence != first.MLConfidence ||
			*next.BreachProbability != *first.BreachProbability ||
			*next.SimilarTickets != *first.SimilarTickets ||
			next.LLMDepartment != first.LLMDepartment {
			t.Fatalf("signals drifted between calls: %+v vs %+v", first, next)
		}
	}
	if first.ModelVersion != "mock-v1" {
		t.Fatalf("expected model version passthrough, got %q", first.ModelVersion)
	}
}

func TestMockProviderBounds(t *testing.T) {
	p := MockProvider{}
	for _, id := range []string{"a", "b", "c", "FB-0001", "FB-9999", ""} {
		s, _, err := p.Signals(context.Background(), models.Ticket{ID: id})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *s.BreachProbability < 0 || *s.BreachProbability >= 1 {
			t.Fatalf("breach probability out of range for %q: %f", id, *s.BreachProbability)
		}
		if *s.SimilarTickets < 0 || *s.SimilarTickets > 4 {
			t.Fatalf("similar tickets out of range for %q: %d", id, *s.SimilarTickets)
		}
		if s.MLPriority == "" {
			t.Fatalf("expected a priority for %q", id)
		}
	}
}
