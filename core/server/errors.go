package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrNilGroup             = errors.New("dispatch group is required")
	ErrFailedLoadCert       = errors.New("failed to load certificate")
)
