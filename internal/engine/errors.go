package engine

import "errors"

var (
	// ErrMalformedData means the raw price feed violated ordering or
	// overlap invariants. Retryable at the fetch level.
	ErrMalformedData = errors.New("price data violates ordering or overlap invariants")

	// ErrEmptyResult means no usable future price points remain, or no
	// admissible window exists inside an otherwise valid range.
	ErrEmptyResult = errors.New("no usable price data for the requested window")

	// ErrInsufficientRange means the clipped search range is shorter
	// than the requested duration.
	ErrInsufficientRange = errors.New("search range shorter than requested duration")

	ErrInvalidInput = errors.New("invalid input parameters")
)
