package domain

import (
	"errors"
	"testing"
)

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "sentinel field error", err: ErrFirstNameRequired, want: true},
		{name: "missing step field", err: &MissingFieldError{Step: StepForwarded, Field: "city"}, want: true},
		{name: "joined validation errors", err: errors.Join(ErrProductNameRequired, ErrProductQtyInvalid), want: true},
		{name: "not found", err: ErrOrderNotFound, want: false},
		{name: "corrupt record", err: &CorruptRecordError{StatusType: "lost"}, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.want {
				t.Errorf("IsValidation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCorruptRecord(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unknown discriminator", err: &CorruptRecordError{RecordID: "s-1", StatusType: "returned"}, want: true},
		{name: "missing column", err: &CorruptRecordError{RecordID: "s-1", StatusType: "forwarded", Column: "destination_city"}, want: true},
		{name: "wrapped", err: errors.Join(errors.New("load order"), &CorruptRecordError{}), want: true},
		{name: "validation", err: ErrUnknownStepType, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCorruptRecord(tt.err); got != tt.want {
				t.Errorf("IsCorruptRecord() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCorruptRecordError_Message(t *testing.T) {
	err := &CorruptRecordError{RecordID: "s-9", StatusType: "forwarded", Column: "destination_city"}
	if got := err.Error(); got != `corrupt tracking step record: record "s-9" (forwarded) has invalid destination_city` {
		t.Fatalf("unexpected message: %s", got)
	}
}
