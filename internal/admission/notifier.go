package admission

import (
	"context"
	"fmt"
)

// Error handler contract values.
const (
	ActionHandleReviewError = "handleReviewError"
	ErrorQueueTimeout       = "QUEUE_TIMEOUT_ERROR"
)

// ErrorSignal is the payload sent to the external error handler.
type ErrorSignal struct {
	Action      string `json:"action"`
	ReviewJobID string `json:"reviewJobId"`
	Error       string `json:"error"`
	UserID      string `json:"userId,omitempty"`
}

// QueueTimeout builds the signal reported for a reaped job.
func QueueTimeout(ref JobRef) ErrorSignal {
	return ErrorSignal{
		Action:      ActionHandleReviewError,
		ReviewJobID: ref.ReviewJobID,
		Error:       ErrorQueueTimeout,
		UserID:      ref.UserID,
	}
}

// Invoker calls a named function with a JSON-encodable payload.
type Invoker interface {
	Invoke(ctx context.Context, function string, payload any) ([]byte, error)
}

// FunctionErrorHandler routes error signals to a function through an Invoker.
type FunctionErrorHandler struct {
	invoker  Invoker
	function string
}

var _ ErrorHandler = (*FunctionErrorHandler)(nil)

// NewErrorHandler creates an ErrorHandler that invokes function for every signal.
func NewErrorHandler(invoker Invoker, function string) *FunctionErrorHandler {
	return &FunctionErrorHandler{
		invoker:  invoker,
		function: function,
	}
}

func (h *FunctionErrorHandler) Signal(ctx context.Context, signal ErrorSignal) error {
	if _, err := h.invoker.Invoke(ctx, h.function, signal); err != nil {
		return fmt.Errorf("signal %s for %s: %w", signal.Error, signal.ReviewJobID, err)
	}
	return nil
}
