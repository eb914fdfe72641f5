package service

import "errors"

var (
	// ErrNotFound means no resource kind owns the requested id.
	ErrNotFound = errors.New("no pending resource found for id")

	// ErrValidation covers missing required input (reason, non-positive amounts).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition means the resource is not in a state that allows
	// the requested transition (e.g. approving a completed transfer).
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrCurrencyMismatch gates budget merging across currencies: amounts in
	// different currencies are never summed numerically.
	ErrCurrencyMismatch = errors.New("cannot merge budgets with different currencies")
)
