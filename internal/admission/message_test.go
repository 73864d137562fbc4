package admission_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/JaimeStill/rapid/internal/admission"
)

func TestDecodeBodyTargets(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []admission.JobRef
	}{
		{
			name: "single job",
			raw:  `{"reviewJobId":"job-1","userId":"u1"}`,
			want: []admission.JobRef{{ReviewJobID: "job-1", UserID: "u1"}},
		},
		{
			name: "single job without user",
			raw:  `{"reviewJobId":"job-1"}`,
			want: []admission.JobRef{{ReviewJobID: "job-1"}},
		},
		{
			name: "jobs list inherits user",
			raw:  `{"userId":"u1","jobs":[{"reviewJobId":"a"},{"reviewJobId":"b","userId":"u2"}]}`,
			want: []admission.JobRef{{ReviewJobID: "a", UserID: "u1"}, {ReviewJobID: "b", UserID: "u2"}},
		},
		{
			name: "missing job id",
			raw:  `{"mail_to":"reviewer@example.com"}`,
			want: []admission.JobRef{{}},
		},
		{
			name: "numeric user id",
			raw:  `{"reviewJobId":"job-1","userId":42}`,
			want: []admission.JobRef{{ReviewJobID: "job-1", UserID: "42"}},
		},
		{
			name: "unexpected field shapes",
			raw:  `{"reviewJobId":"job-1","userId":{"id":7},"jobs":"none","priority":[1]}`,
			want: []admission.JobRef{{ReviewJobID: "job-1"}},
		},
		{
			name: "numeric ids in jobs list",
			raw:  `{"userId":"u1","jobs":[{"reviewJobId":101},{"reviewJobId":"b","userId":false}]}`,
			want: []admission.JobRef{{ReviewJobID: "101", UserID: "u1"}, {ReviewJobID: "b", UserID: "u1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := admission.DecodeBody(tt.raw)
			if err != nil {
				t.Fatalf("DecodeBody: %v", err)
			}
			if got := body.Targets(); !slices.Equal(got, tt.want) {
				t.Errorf("Targets() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeBodyMalformed(t *testing.T) {
	for _, raw := range []string{"", "nope", `"string"`, `[1,2]`, `null`, `{"reviewJobId":`} {
		if _, err := admission.DecodeBody(raw); !errors.Is(err, admission.ErrMalformedBody) {
			t.Errorf("DecodeBody(%q) error = %v, want %v", raw, err, admission.ErrMalformedBody)
		}
	}
}

func TestMessageWait(t *testing.T) {
	msg := admission.Message{SentAt: now.Add(-90 * time.Minute)}
	if got := msg.Wait(now); got != 90*time.Minute {
		t.Errorf("Wait() = %v, want %v", got, 90*time.Minute)
	}

	if got := (admission.Message{}).Wait(now); got != 0 {
		t.Errorf("Wait() without timestamp = %v, want 0", got)
	}
}
