package agent

import "errors"

var (
	ErrNoModel       = errors.New("model id required")
	ErrTurnLimit     = errors.New("agent exceeded turn limit")
	ErrUnknownTool   = errors.New("unknown tool")
	ErrInvalidInput  = errors.New("invalid tool input")
	ErrPathOutside   = errors.New("path outside tool root")
	ErrUnsupported   = errors.New("unsupported file format")
	ErrEmptyResponse = errors.New("model returned no message")
)
