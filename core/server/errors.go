package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server: address is required")
	ErrServerAlreadyRunning = errors.New("server: already running")
)
