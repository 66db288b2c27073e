package emissions

import "errors"

// Failure taxonomy for the table builder. Every error returned by
// Provider.GetTable wraps exactly one of these sentinels, so callers can
// branch with errors.Is without string matching.
var (
	// ErrSourceUnavailable covers transport failures and non-200 responses
	// from the upstream API.
	ErrSourceUnavailable = errors.New("emissions source unavailable")

	// ErrMalformedResponse covers responses that decoded but did not carry
	// the expected envelope or observation shape.
	ErrMalformedResponse = errors.New("malformed emissions response")

	// ErrEmptyResult means the fetch succeeded but no usable records
	// survived normalization.
	ErrEmptyResult = errors.New("no usable emissions records")
)
