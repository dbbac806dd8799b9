package internaltypes

import "errors"

var (
	ErrUpstream      = errors.New("upstream query failed")
	ErrConfiguration = errors.New("invalid configuration")
	ErrDelivery      = errors.New("notification delivery failed")
	ErrNotFound      = errors.New("not found")
)

// Class names the failure class of err for logs, history rows and the final
// notification sent before a fail-fast exit.
func Class(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	default:
		return "internal"
	}
}
