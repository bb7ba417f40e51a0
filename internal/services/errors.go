package services

import "errors"

var (
	// ErrInvalidRequest marks malformed or unresolvable input
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidToken marks an unknown or expired webhook token
	ErrInvalidToken = errors.New("invalid or expired webhook token")
	// ErrMissingCredentials marks a user without API keys for the bot's exchange
	ErrMissingCredentials = errors.New("missing exchange credentials")
)
