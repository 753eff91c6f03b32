// Package schema is the validation kernel. Every aggregate record the
// library hands to callers implements Record and is passed through
// Validate exactly once at the end of its constructor path. The checkers
// below are the vocabulary those Validate methods are written in; each
// reports the first violated constraint as an apierr.ValidationError.
package schema

import (
	"regexp"
	"strings"
	"time"

	"jianshukit/lib/apierr"
	"jianshukit/lib/config"
)

type Record interface {
	Validate() error
}

// Validate re-checks a freshly built record against its schema. It is a
// no-op when data validation is disabled in the configuration root, which
// exists for the rare windows where the remote site ships transiently
// out-of-range data. Validation is idempotent.
func Validate(rec Record) error {
	if !config.Get().DataValidation.Enabled {
		return nil
	}
	return rec.Validate()
}

func violation(field, reason string) *apierr.ValidationError {
	return &apierr.ValidationError{Field: field, Reason: reason}
}

func NonNegativeInt(field string, v int64) error {
	if v < 0 {
		return violation(field, "must be >= 0")
	}
	return nil
}

func PositiveInt(field string, v int64) error {
	if v <= 0 {
		return violation(field, "must be > 0")
	}
	return nil
}

func NonNegativeFloat(field string, v float64) error {
	if v < 0 {
		return violation(field, "must be >= 0")
	}
	return nil
}

func PositiveFloat(field string, v float64) error {
	if v <= 0 {
		return violation(field, "must be > 0")
	}
	return nil
}

func Percentage(field string, v float64) error {
	if v < 0 || v > 1 {
		return violation(field, "must be within [0, 1]")
	}
	return nil
}

func NonEmptyStr(field, s string) error {
	if s == "" {
		return violation(field, "must not be empty")
	}
	return nil
}

// \w is ASCII-only in Go; user names are mostly CJK.
var userNameRe = regexp.MustCompile(`^[\p{L}\p{N}_]*$`)

func UserName(field, s string) error {
	if !userNameRe.MatchString(s) {
		return violation(field, "is not a valid user name")
	}
	return nil
}

func UserUploadedURL(field, s string) error {
	if !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "http://") {
		return violation(field, "must be an http(s) url")
	}
	return nil
}

// NormalizedTime requires the naive-UTC shape produced by
// normalize.Time: UTC location, no sub-second component.
func NormalizedTime(field string, t time.Time) error {
	if t.IsZero() {
		return violation(field, "must be set")
	}
	if t.Location() != time.UTC {
		return violation(field, "must be naive utc")
	}
	if t.Nanosecond() != 0 {
		return violation(field, "must not carry sub-second precision")
	}
	return nil
}

// First runs checks in order and returns the first violation.
func First(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}
