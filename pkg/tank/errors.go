package tank

import "errors"

// Precondition errors. Each rejected input maps to exactly one of these so callers
// can branch with errors.Is; the wrapped message carries the offending value.
var (
	ErrInvalidLimits    = errors.New("invalid tank limits")
	ErrNegativeDuration = errors.New("negative operation duration")
	ErrInvalidQuantity  = errors.New("operation quantity must be finite")
	ErrUnsortedSamples  = errors.New("samples are not ordered by timestamp")
	ErrLevelOutOfLimits = errors.New("sample level outside tank limits")
)

var (
	// ErrEmptySeries is returned by Series lookups when there is no history.
	ErrEmptySeries = errors.New("empty sample series")

	// ErrOutOfRange is returned by Series lookups outside [first, last].
	ErrOutOfRange = errors.New("timestamp outside sample series")

	// ErrUnknownEngine is returned by New for names that were never registered.
	ErrUnknownEngine = errors.New("unknown tank engine")

	// ErrPostcondition signals an engine bug caught by WithPostconditions.
	ErrPostcondition = errors.New("tank postcondition violated")
)

// IsPrecondition reports whether err was caused by invalid caller input.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrInvalidLimits) ||
		errors.Is(err, ErrNegativeDuration) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrUnsortedSamples) ||
		errors.Is(err, ErrLevelOutOfLimits)
}

// Reason returns a short label for a precondition error, suitable for metric labels.
// Non-precondition errors map to "internal".
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidLimits):
		return "invalid_limits"
	case errors.Is(err, ErrNegativeDuration):
		return "negative_duration"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrUnsortedSamples):
		return "unsorted_samples"
	case errors.Is(err, ErrLevelOutOfLimits):
		return "level_out_of_limits"
	case errors.Is(err, ErrUnknownEngine):
		return "unknown_engine"
	default:
		return "internal"
	}
}
