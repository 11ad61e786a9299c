package service

import "errors"

var (
	// ErrInvalidInput marks a request the service cannot act on.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned for status changes outside the workflow table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownJurisdiction is returned when a re-route names a node that is not loaded.
	ErrUnknownJurisdiction = errors.New("unknown jurisdiction")
	// ErrSelfDuplicate rejects marking an issue as a duplicate of itself.
	ErrSelfDuplicate = errors.New("issue cannot duplicate itself")
)
