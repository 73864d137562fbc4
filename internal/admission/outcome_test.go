package admission_test

import (
	"testing"

	"github.com/JaimeStill/rapid/internal/admission"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome  admission.Outcome
		name     string
		retry    bool
		occupies bool
	}{
		{admission.Admitted, "admitted", false, true},
		{admission.Duplicate, "duplicate", false, true},
		{admission.TransientFailure, "transient_failure", true, false},
		{admission.Poison, "poison", false, false},
		{admission.Reaped, "reaped", false, false},
		{admission.Deferred, "deferred", true, false},
		{admission.Outcome(0), "unknown", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.outcome.Retry(); got != tt.retry {
				t.Errorf("Retry() = %v, want %v", got, tt.retry)
			}
			if got := tt.outcome.Occupies(); got != tt.occupies {
				t.Errorf("Occupies() = %v, want %v", got, tt.occupies)
			}
		})
	}
}
