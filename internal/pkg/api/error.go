package api

import "errors"

var (
	// ErrAPIAlreadyInitialized is returned when the API server is already initialized.
	ErrAPIAlreadyInitialized = errors.New("API server already initialized")
)
