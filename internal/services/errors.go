// Package services defines the business logic for messages, players, and
// deletion statistics. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import "errors"

var (
	// ErrMessageNotFound indicates that the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrDuplicateMessage is returned when the same sender posts the same
	// text within the duplicate-suppression window.
	ErrDuplicateMessage = errors.New("duplicate message within window")

	// ErrInvalidStatus is returned when a write names an unknown ai_status
	// value.
	ErrInvalidStatus = errors.New("invalid ai_status value")

	// ErrPlayerNotFound indicates that the requested player does not exist.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrUserSeenNotFound indicates that no seen list exists for the user.
	ErrUserSeenNotFound = errors.New("user seen entry not found")
)
