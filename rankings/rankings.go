// Package rankings exposes the host site's aggregated leaderboards: the
// assets ranking, the daily-update streak ranking and the per-day
// user/article earning snapshots. All query objects are stateless; cursor
// state lives inside the returned iterators.
package rankings

import (
	"time"

	"go.opentelemetry.io/otel"

	"jianshukit/lib/apierr"
)

var tracer = otel.Tracer("jianshukit/rankings")

// earningRecordsStart is the first day the site kept per-day earning
// snapshots for.
var earningRecordsStart = time.Date(2020, 6, 20, 0, 0, 0, 0, time.UTC)

// validateEarningDate enforces the endpoint's date window
// [2020-06-20, yesterday]. A date before the window is an API limitation,
// a date that has not finished yet is a caller bug.
func validateEarningDate(date time.Time) error {
	day := date.UTC().Truncate(24 * time.Hour)
	if day.Before(earningRecordsStart) {
		return apierr.Unsupportedf(
			"earning rankings start at %s",
			earningRecordsStart.Format("2006-01-02"),
		)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if !day.Before(today) {
		return apierr.Inputf("earning rankings are only available for finished days")
	}
	return nil
}
