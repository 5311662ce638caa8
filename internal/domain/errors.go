package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("invalid request")
	ErrAgentFailure = errors.New("agent failure")
	ErrStorage      = errors.New("storage failure")
	ErrJobTerminal  = errors.New("job already terminal")
	ErrJobRunning   = errors.New("job already running")
)
