package domain

import "errors"

// Sentinel errors shared by the portal services and adapters.
var (
	// ErrNoSession is returned when an operation requires a logged-in session.
	ErrNoSession = errors.New("no active session")
	// ErrForbidden is returned when the session role may not perform the operation.
	ErrForbidden = errors.New("operation requires admin role")
	// ErrLocked is returned when village-scoped content is read while the gate is closed.
	ErrLocked = errors.New("village content is locked")
	// ErrUnknownVillage is returned for a village outside the enumerated list.
	ErrUnknownVillage = errors.New("unknown village")
	// ErrUnknownTab is returned for a tab outside the portal tab set.
	ErrUnknownTab = errors.New("unknown tab")
	// ErrUnknownRelation is returned for a lineage key outside the six slots.
	ErrUnknownRelation = errors.New("unknown lineage relation")
	// ErrInvalidMediaType is returned when uploaded media does not match the item type.
	ErrInvalidMediaType = errors.New("media does not match item type")
	// ErrNoChallenge is returned when a code is submitted with no pending challenge.
	ErrNoChallenge = errors.New("no pending access challenge")
	// ErrInvalidInput is returned when a required field is missing or blank.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when an addressed record does not exist.
	ErrNotFound = errors.New("not found")
)
