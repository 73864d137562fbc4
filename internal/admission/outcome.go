package admission

// Outcome is the terminal decision for one queue message in a batch.
// Exactly one Outcome is produced per message.
type Outcome int

const (
	// Admitted means a workflow execution was started for the message.
	Admitted Outcome = iota + 1
	// Duplicate means an execution with the message id already existed.
	Duplicate
	// TransientFailure means the launch failed and the message was rescheduled.
	TransientFailure
	// Poison means the message can never succeed and was acknowledged unprocessed.
	Poison
	// Reaped means the message exceeded the maximum queue age and was abandoned.
	Reaped
	// Deferred means no concurrency slot was available.
	Deferred
)

var outcomeNames = map[Outcome]string{
	Admitted:         "admitted",
	Duplicate:        "duplicate",
	TransientFailure: "transient_failure",
	Poison:           "poison",
	Reaped:           "reaped",
	Deferred:         "deferred",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Retry reports whether the message must be redelivered.
func (o Outcome) Retry() bool {
	return o == TransientFailure || o == Deferred
}

// Occupies reports whether an execution now exists for the message,
// consuming one concurrency slot.
func (o Outcome) Occupies() bool {
	return o == Admitted || o == Duplicate
}

// Outcomes lists every defined outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{Admitted, Duplicate, TransientFailure, Poison, Reaped, Deferred}
}
