package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication and session errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrStateMismatch  = fmt.Errorf("authorization state mismatch")
	ErrSessionInvalid = fmt.Errorf("no usable session")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")

	// API and collection errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrEmptyCollection = fmt.Errorf("collection has no items")
	ErrNoCollectionID  = fmt.Errorf("no collection selected")
)
