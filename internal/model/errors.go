package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidSetup    = errors.New("account hash and display name are required")

	// Snapshot errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
