// Package normalize converts wire-shaped values from the host and market
// sites into the forms the record schemas require: milli-FP integers into
// decimal amounts, mixed timestamp encodings into naive UTC times, and
// numeric/string codes into closed enumerations.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"jianshukit/lib/apierr"
)

// epoch values larger than this are treated as milliseconds. The host site
// mixes both encodings across endpoints.
const epochMillisThreshold = 1e11

// Time converts an epoch-seconds number, an epoch-milliseconds number or
// an ISO-8601 string into a naive UTC time truncated to whole seconds.
// Applying it to its own output is the identity.
func Time(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Truncate(time.Second), nil
	case int:
		return epochTime(float64(t)), nil
	case int64:
		return epochTime(float64(t)), nil
	case float64:
		return epochTime(t), nil
	case string:
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
		} {
			parsed, err := time.Parse(layout, t)
			if err == nil {
				return parsed.UTC().Truncate(time.Second), nil
			}
		}
		return time.Time{}, apierr.Inputf("%q is not a recognized timestamp", t)
	default:
		return time.Time{}, apierr.Inputf("cannot normalize %T into a timestamp", v)
	}
}

func epochTime(v float64) time.Time {
	if v > epochMillisThreshold {
		v /= 1000
	}
	return time.Unix(int64(v), 0).UTC()
}

// TimeOrNow is Time with a now-fallback for endpoints whose schema allows
// a missing timestamp. Optional wire fields decode into *int64; a nil
// pointer means the field was absent and takes the fallback, never the
// epoch zero a plain int64 would produce.
func TimeOrNow(v any) time.Time {
	if p, ok := v.(*int64); ok {
		if p == nil {
			return time.Now().UTC().Truncate(time.Second)
		}
		v = *p
	}
	if v == nil {
		return time.Now().UTC().Truncate(time.Second)
	}
	t, err := Time(v)
	if err != nil {
		return time.Now().UTC().Truncate(time.Second)
	}
	return t
}

// AssetsAmount converts the wire's milli-FP integers to the decimal the
// site displays.
func AssetsAmount(milli int64) float64 {
	return float64(milli) / 1000
}

var preciseDivisor = decimal.New(1, 18)

// PreciseAssetsAmount converts the market site's 18-decimal fixed-point
// integers (sent as strings to survive json number precision) into exact
// decimals.
func PreciseAssetsAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apierr.Inputf("%q is not a precise amount", raw)
	}
	return d.Div(preciseDivisor), nil
}

// CompactAssets parses the mobile template's compact assets rendering,
// e.g. "8.21w" where the w suffix multiplies by 10^4. Values rendered in
// this format lose up to 1000 FTN of precision on the server side.
func CompactAssets(s string) (float64, error) {
	s = strings.TrimSpace(s)
	multiplier := 1.0
	if strings.HasSuffix(s, "w") || strings.HasSuffix(s, "W") {
		multiplier = 10000
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, apierr.Inputf("%q is not an assets amount", s)
	}
	return v * multiplier, nil
}
