package futures

import "errors"

var (
	// ErrInvalidTicker is returned for a malformed product prefix, month letter or year.
	ErrInvalidTicker = errors.New("invalid ticker")
	// ErrInvalidRate is returned when 1+rate is not positive.
	ErrInvalidRate = errors.New("invalid rate")
	// ErrInvalidPrice is returned for a non-positive unit price.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrUndefinedRate is returned when the contract has no time left to maturity.
	ErrUndefinedRate = errors.New("undefined rate")
)
