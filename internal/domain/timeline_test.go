package domain

import (
	"testing"
	"time"
)

func TestBuildTimeline_Empty(t *testing.T) {
	tl := BuildTimeline(nil)
	if len(tl.Steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(tl.Steps))
	}
	if tl.Current != AwaitingProcessing {
		t.Fatalf("expected awaiting processing, got %+v", tl.Current)
	}
	if tl.Current.Terminal() {
		t.Fatal("awaiting processing is not terminal")
	}
	if got := tl.Current.Describe(); got != "awaiting processing" {
		t.Fatalf("unexpected description: %s", got)
	}
}

func TestBuildTimeline_OrdersByCreatedAt(t *testing.T) {
	base := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	steps := []TimedStep{
		{Step: Delivered(), ID: "c", CreatedAt: base.Add(2 * time.Hour)},
		{Step: Processed(), ID: "a", CreatedAt: base},
		{Step: Forwarded(CapitalSaoPaulo), ID: "b", CreatedAt: base.Add(time.Hour)},
	}

	tl := BuildTimeline(steps)

	want := []string{"a", "b", "c"}
	for i, id := range want {
		if tl.Steps[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, tl.Steps[i].ID)
		}
	}
	if tl.Current.Step != Delivered() || !tl.Current.At.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected current status: %+v", tl.Current)
	}
	if !tl.Current.Terminal() {
		t.Fatal("delivered must be terminal")
	}
	if steps[0].ID != "c" {
		t.Fatal("input slice must not be reordered")
	}
}

func TestSortSteps_KeepsInsertionOrderOnTies(t *testing.T) {
	at := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	steps := []TimedStep{
		{Step: Processed(), ID: "1", CreatedAt: at},
		{Step: Forwarded(CapitalRecife), ID: "2", CreatedAt: at},
		{Step: OutForDelivery("Olinda"), ID: "3", CreatedAt: at},
	}

	sorted := SortSteps(steps)
	for i := range steps {
		if sorted[i].ID != steps[i].ID {
			t.Fatalf("tie order changed at %d: %s", i, sorted[i].ID)
		}
	}
	if got := CurrentStatus(steps).Describe(); got != "out for delivery in Olinda" {
		t.Fatalf("unexpected current status: %s", got)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{step: Processed(), want: "processed"},
		{step: Forwarded(CapitalSaoPaulo), want: "forwarded to São Paulo"},
		{step: InTransit(CapitalManaus, CapitalBelem), want: "in transit from Manaus to Belém"},
		{step: OutForDelivery("Campinas"), want: "out for delivery in Campinas"},
		{step: Delivered(), want: "delivered"},
		{step: Cancelled(), want: "cancelled"},
		{step: Step{Type: "lost"}, want: "status update"},
	}

	for _, tt := range tests {
		if got := Describe(tt.step); got != tt.want {
			t.Errorf("Describe(%s) = %q, want %q", tt.step.Type, got, tt.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	cancelled := CurrentStatus([]TimedStep{{Step: Cancelled()}})
	if !cancelled.Terminal() {
		t.Fatal("cancelled must be terminal")
	}
	inTransit := CurrentStatus([]TimedStep{{Step: InTransit(CapitalSalvador, CapitalRecife)}})
	if inTransit.Terminal() {
		t.Fatal("in transit must not be terminal")
	}
}
