package domain

import (
	"errors"
	"testing"
	"time"
)

func TestStepCodec_RoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)
	steps := []Step{
		Processed(),
		Forwarded(CapitalCuritiba),
		InTransit(CapitalSaoPaulo, CapitalFortaleza),
		Cancelled(),
		OutForDelivery("Niterói"),
		Delivered(),
	}

	for _, step := range steps {
		t.Run(string(step.Type), func(t *testing.T) {
			rec := EncodeTimedStep("order-1", TimedStep{Step: step, ID: "s-1", CreatedAt: at})
			if rec.StatusType != string(step.Type) {
				t.Fatalf("unexpected status_type %q", rec.StatusType)
			}

			decoded, err := DecodeStep(rec)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if decoded.Step != step {
				t.Fatalf("round trip mismatch: %+v != %+v", decoded.Step, step)
			}
			if decoded.ID != "s-1" || !decoded.CreatedAt.Equal(at) {
				t.Fatalf("record metadata lost: %+v", decoded)
			}
		})
	}
}

func TestEncodeStep_ColumnLayout(t *testing.T) {
	tests := []struct {
		name        string
		step        Step
		origin      *string
		destination *string
		delivery    *string
	}{
		{name: "processed", step: Processed()},
		{name: "forwarded", step: Forwarded(CapitalRecife), destination: strPtr("Recife")},
		{name: "in transit", step: InTransit(CapitalManaus, CapitalBelem), origin: strPtr("Manaus"), destination: strPtr("Belém")},
		{name: "out for delivery", step: OutForDelivery("Olinda"), delivery: strPtr("Olinda")},
		{name: "delivered", step: Delivered()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := EncodeStep(tt.step)
			assertColumn(t, "origin_city", rec.OriginCity, tt.origin)
			assertColumn(t, "destination_city", rec.DestinationCity, tt.destination)
			assertColumn(t, "delivery_city", rec.DeliveryCity, tt.delivery)
		})
	}
}

func assertColumn(t *testing.T, name string, got, want *string) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil || want == nil:
		t.Fatalf("%s: got %v, want %v", name, got, want)
	case *got != *want:
		t.Fatalf("%s: got %q, want %q", name, *got, *want)
	}
}

func TestDecodeStep_CorruptRecords(t *testing.T) {
	tests := []struct {
		name       string
		rec        StepRecord
		wantColumn string
	}{
		{name: "unknown discriminator", rec: StepRecord{ID: "s-1", StatusType: "returned"}},
		{name: "empty discriminator", rec: StepRecord{ID: "s-2"}},
		{name: "forwarded without destination", rec: StepRecord{ID: "s-3", StatusType: "forwarded"}, wantColumn: "destination_city"},
		{name: "forwarded to non capital", rec: StepRecord{ID: "s-4", StatusType: "forwarded", DestinationCity: strPtr("Santos")}, wantColumn: "destination_city"},
		{name: "in transit without origin", rec: StepRecord{ID: "s-5", StatusType: "inTransit", DestinationCity: strPtr("Recife")}, wantColumn: "origin_city"},
		{name: "in transit without destination", rec: StepRecord{ID: "s-6", StatusType: "inTransit", OriginCity: strPtr("Recife")}, wantColumn: "destination_city"},
		{name: "out for delivery without city", rec: StepRecord{ID: "s-7", StatusType: "outForDelivery"}, wantColumn: "delivery_city"},
		{name: "out for delivery blank city", rec: StepRecord{ID: "s-8", StatusType: "outForDelivery", DeliveryCity: strPtr(" ")}, wantColumn: "delivery_city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStep(tt.rec)
			if !IsCorruptRecord(err) {
				t.Fatalf("expected corrupt record error, got %v", err)
			}
			var corruptErr *CorruptRecordError
			if !errors.As(err, &corruptErr) {
				t.Fatalf("expected *CorruptRecordError, got %T", err)
			}
			if corruptErr.RecordID != tt.rec.ID || corruptErr.Column != tt.wantColumn {
				t.Fatalf("unexpected error details: %+v", corruptErr)
			}
		})
	}
}

func TestDecodeStep_IgnoresForeignColumns(t *testing.T) {
	rec := StepRecord{ID: "s-1", StatusType: "delivered", OriginCity: strPtr("Recife"), DeliveryCity: strPtr("Olinda")}

	step, err := DecodeStep(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if step.Step != Delivered() {
		t.Fatalf("expected bare delivered step, got %+v", step.Step)
	}
}

func TestDecodeSteps_StopsOnFirstCorruptRecord(t *testing.T) {
	records := EncodeSteps("order-1", []TimedStep{
		{Step: Processed(), ID: "s-1"},
		{Step: Delivered(), ID: "s-2"},
	})
	records = append(records, StepRecord{ID: "s-3", StatusType: "lost"})

	if _, err := DecodeSteps(records); !IsCorruptRecord(err) {
		t.Fatalf("expected corrupt record error, got %v", err)
	}

	steps, err := DecodeSteps(records[:2])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(steps) != 2 || steps[1].Type != StepDelivered {
		t.Fatalf("unexpected steps: %+v", steps)
	}
	if records[0].OrderID != "order-1" {
		t.Fatalf("order id not propagated: %q", records[0].OrderID)
	}
}
