// Package resources implements the five first-class resource kinds of the
// host site: User, Article, Notebook, Collection and Island. A resource
// object is a cheap value holder around an identifier; no I/O happens at
// construction. The first field access optionally runs an existence
// pre-flight, then fetches, normalizes, validates and memoizes the full
// info record.
package resources

import (
	"context"
	"errors"
	"math"

	"go.opentelemetry.io/otel"

	"jianshukit/lib/apierr"
	"jianshukit/lib/config"
)

var tracer = otel.Tracer("jianshukit/resources")

// resourceState is the only mutable part of a resource object: the
// checked flag and the memoized info record (held by the embedding type).
// Writes are last-writer-wins; duplicate fetches in flight are permitted.
type resourceState struct {
	checked bool
}

// markTrusted flags objects produced from an already-validated upstream
// record so the pre-flight is skipped, unless configuration forces
// re-checking trusted data.
func (s *resourceState) markTrusted() {
	s.checked = !config.Get().ResourceCheck.ForceCheckSafeData
}

// ensure runs check before the first field access when auto-check is on.
func (s *resourceState) ensure(ctx context.Context, check func(context.Context) error) error {
	if s.checked || !config.Get().ResourceCheck.AutoCheck {
		return nil
	}
	return check(ctx)
}

// withResourceURL reinterprets a 404 from a resource existence endpoint
// as a missing resource, stamped with the canonical url so callers see
// which identifier failed, not which endpoint. Other errors pass through.
func withResourceURL(err error, url string) error {
	var upstream *apierr.UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode == 404 {
		return &apierr.ResourceUnavailableError{URL: url}
	}
	return err
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func cacheEnabled() bool {
	return config.Get().ResourceCache.Enabled
}
