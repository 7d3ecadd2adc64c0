package contracts

import (
	"errors"
	"fmt"
)

// Error taxonomy
var (
	ErrInvalidSeries    = errors.New("invalid series")
	ErrInsufficientData = errors.New("insufficient data")
	ErrDataUnavailable  = errors.New("data unavailable")
	ErrDeliveryFailure  = errors.New("delivery failure")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrSignalNotFound   = errors.New("signal not found")
	ErrInvalidRequest   = errors.New("invalid request")
)

// SeriesError points at the bar that failed validation
type SeriesError struct {
	Index  int
	Reason string
}

func (e *SeriesError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid series: %s", e.Reason)
	}
	return fmt.Sprintf("invalid series at bar %d: %s", e.Index, e.Reason)
}

func (e *SeriesError) Unwrap() error {
	return ErrInvalidSeries
}

// FailureReason maps an error to a short metrics/diagnostic label
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSeries):
		return "invalid_series"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrSymbolNotFound):
		return "symbol_not_found"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrDeliveryFailure):
		return "delivery_failure"
	case errors.Is(err, ErrInvalidSymbol):
		return "invalid_symbol"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "internal"
	}
}
