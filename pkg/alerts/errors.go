package alerts

import "errors"

var (
	// ErrAlertNotFound is returned when an alert does not exist or is not
	// owned by the requesting user.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrInvalidAlert is returned when create parameters fail validation;
	// nothing is persisted.
	ErrInvalidAlert = errors.New("invalid alert parameters")

	// ErrAlertNotTransitionable is returned by a compare-and-swap status
	// transition whose precondition no longer holds, e.g. another
	// evaluator already claimed the alert or the user cancelled it.
	ErrAlertNotTransitionable = errors.New("alert not in expected status")

	// ErrCampsiteNotFound is returned by price and availability providers
	// when the alert's target campsite no longer exists. The evaluator
	// treats it as an implicit cancellation.
	ErrCampsiteNotFound = errors.New("campsite not found")
)
