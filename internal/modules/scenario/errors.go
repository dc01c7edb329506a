package scenario

import "errors"

var (
	// ErrInsufficientData is returned when fewer than two closes are available.
	ErrInsufficientData = errors.New("insufficient price history")
	// ErrInvalidPrice is returned when a close is zero, negative or not finite.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrInvalidRequest is returned for unusable simulation sizes or inputs.
	ErrInvalidRequest = errors.New("invalid simulation request")
)
