// Package coerce converts application-level values into the literal
// representations each storage engine accepts. All functions are pure; a value
// that cannot be converted is returned unchanged together with an error so the
// caller can log it and keep going.
package coerce

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// TimeMode selects how temporal values are rendered for an engine.
type TimeMode int

const (
	// TimeNative passes time.Time through untouched. The embedded file
	// engine binds temporal values natively.
	TimeNative TimeMode = iota
	// TimeString renders temporal values as "2006-01-02 15:04:05" string
	// literals, which is what the client/server engines expect.
	TimeString
)

// DateTimeLayout is the literal format the client/server engines accept.
const DateTimeLayout = "2006-01-02 15:04:05"

// isoDateTime matches ISO-like date/time strings: a date part followed by a
// "T" or space separated time part, optional fractional seconds, optional
// zone suffix. Date-only strings deliberately do not match.
var isoDateTime = regexp.MustCompile(
	`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2})?(\.\d+)?(Z|[+-]\d{2}:?\d{2})?$`)

// parseLayouts are tried in order when normalizing an ISO-like string.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Value coerces a single bound value for the given time mode.
//
// Recognized timestamp representations (time.Time and ISO-like date/time
// strings) are converted to the engine literal. Date-only strings and all
// other types pass through unchanged. NaN and infinite floats become 0 so
// they never reach a driver. A nil return error means the value is safe to
// dispatch; on error the original value is returned and the caller decides
// whether to log.
func Value(v any, mode TimeMode) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if mode == TimeNative {
			return val, nil
		}
		return val.UTC().Format(DateTimeLayout), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return Value(*val, mode)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return float64(0), nil
		}
		return val, nil
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return float32(0), nil
		}
		return val, nil
	case string:
		if !isoDateTime.MatchString(val) {
			return val, nil
		}
		t, err := parseDateTime(val)
		if err != nil {
			return val, fmt.Errorf("coerce: unparseable timestamp %q: %w", val, err)
		}
		if mode == TimeNative {
			return t, nil
		}
		return t.UTC().Format(DateTimeLayout), nil
	default:
		return v, nil
	}
}

// Args coerces a whole parameter list. The returned slice is always the same
// length as the input; values that fail to convert are kept as-is and the
// first such failure is reported so the caller can emit a diagnostic.
func Args(args []any, mode TimeMode) ([]any, error) {
	if len(args) == 0 {
		return args, nil
	}
	out := make([]any, len(args))
	var firstErr error
	for i, a := range args {
		v, err := Value(a, mode)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		out[i] = v
	}
	return out, firstErr
}

// Time parses any recognized timestamp representation back into a time.Time.
// Used when reading engine values back out for comparison.
func Time(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	case string:
		t, err := parseDateTime(val)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case []byte:
		t, err := parseDateTime(string(val))
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

func parseDateTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range parseLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
