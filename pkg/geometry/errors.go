package geometry

import "errors"

var (
	// ErrInvalidTransform is returned when an index-to-world matrix is singular.
	ErrInvalidTransform = errors.New("invalid transform: matrix is singular")

	// ErrInvalidBounds is returned when a bounds array has min > max on some axis.
	ErrInvalidBounds = errors.New("invalid bounds: min greater than max")

	// ErrIndexOutOfRange is returned when a time-step index does not address an existing slot.
	ErrIndexOutOfRange = errors.New("time step index out of range")

	// ErrInvalidArgument is returned for zero-length initialisation requests and nil inputs.
	ErrInvalidArgument = errors.New("invalid argument")
)
