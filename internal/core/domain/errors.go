package domain

import "errors"

var (
	// ErrMalformedQuantity reports a supplier quantity that could not be
	// classified. It is never silently coerced to zero.
	ErrMalformedQuantity = errors.New("malformed quantity")

	// ErrMalformedPrice reports a supplier price with no usable digits.
	ErrMalformedPrice = errors.New("malformed price")

	// ErrInvalidBatchSize reports a non-positive chunk size. Programmer error.
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrBadResponse reports a marketplace response missing an expected field
	// or violating the pagination contract.
	ErrBadResponse = errors.New("unexpected marketplace response")

	// ErrTransportTimeout reports a request that exceeded its deadline.
	ErrTransportTimeout = errors.New("transport timeout")

	// ErrTransportConnection reports a network-level failure.
	ErrTransportConnection = errors.New("transport connection failure")
)

// ErrorKind maps an error onto the stable kind name recorded in the sync
// journal and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrTransportTimeout):
		return "transport_timeout"
	case errors.Is(err, ErrTransportConnection):
		return "transport_connection"
	case errors.Is(err, ErrMalformedQuantity):
		return "malformed_quantity"
	case errors.Is(err, ErrMalformedPrice):
		return "malformed_price"
	case errors.Is(err, ErrInvalidBatchSize):
		return "invalid_batch_size"
	case errors.Is(err, ErrBadResponse):
		return "bad_response"
	default:
		return "unexpected"
	}
}
