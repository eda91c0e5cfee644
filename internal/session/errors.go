package session

import "errors"

// Sentinel errors for validation, authorization, not found, and two protocol
// conflicts (a completed session, the per-owner preset limit); any other
// error is treated as internal. Handlers map these to transport codes with
// errors.Is, instead of comparing error
// strings the way the teacher's draft handler did.
var (
	ErrValidation      = errors.New("validation failure")
	ErrUnauthorized    = errors.New("authorization failure")
	ErrNotFound        = errors.New("not found")
	ErrSessionComplete = errors.New("session already complete")
	ErrPresetLimit     = errors.New("owner already has the maximum number of cost presets")
)
