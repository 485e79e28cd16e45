package stripe

import (
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v82"
)

// IsNotFound reports whether the error is the processor telling us the
// referenced object no longer exists. Callers use this to detect stale local
// correlation rows.
func IsNotFound(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound {
			return true
		}
		return stripeErr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}
