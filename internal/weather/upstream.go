package weather

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/skycast/skycast/internal/provider/resilience"
)

// UpstreamError maps a resilience client error onto the weather error kinds.
//
//   - 401/403 → ErrMisconfigured (credential rejected)
//   - undecodable body → ErrUpstreamMalformed
//   - everything else (transport, timeout, 4xx/5xx, open circuit) → ErrUpstreamUnavailable
func UpstreamError(op string, err error) error {
	if err == nil {
		return nil
	}

	var statusErr *resilience.StatusError
	switch {
	case errors.As(err, &statusErr) &&
		(statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden):
		return fmt.Errorf("%s: %w: %w", op, ErrMisconfigured, err)
	case errors.Is(err, resilience.ErrDecode):
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamMalformed, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
	}
}
