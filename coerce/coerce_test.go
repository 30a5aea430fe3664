package coerce

import (
	"math"
	"testing"
	"time"
)

func TestArgsSanitizesInvalidNumbers(t *testing.T) {
	out, err := Args([]any{math.NaN(), "x", nil}, TimeString)
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	if out[0] != float64(0) {
		t.Errorf("NaN should coerce to 0, got %v", out[0])
	}
	if out[1] != "x" {
		t.Errorf("plain string should pass through, got %v", out[1])
	}
	if out[2] != nil {
		t.Errorf("nil should stay nil, got %v", out[2])
	}
}

func TestValueInfinity(t *testing.T) {
	v, err := Value(math.Inf(1), TimeNative)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != float64(0) {
		t.Errorf("+Inf should coerce to 0, got %v", v)
	}
}

func TestValueTimeString(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	v, err := Value(ts, TimeString)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "2026-03-14 09:26:53" {
		t.Errorf("expected formatted literal, got %v", v)
	}
}

func TestValueTimeNative(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	v, err := Value(ts, TimeNative)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if got, ok := v.(time.Time); !ok || !got.Equal(ts) {
		t.Errorf("native mode should pass time.Time through, got %v", v)
	}
}

func TestValueISOStrings(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-03-14T09:26:53Z", "2026-03-14 09:26:53"},
		{"2026-03-14T09:26:53.250Z", "2026-03-14 09:26:53"},
		{"2026-03-14 09:26:53", "2026-03-14 09:26:53"},
		{"2026-03-14T09:26", "2026-03-14 09:26:00"},
	}
	for _, c := range cases {
		v, err := Value(c.in, TimeString)
		if err != nil {
			t.Errorf("Value(%q) failed: %v", c.in, err)
			continue
		}
		if v != c.want {
			t.Errorf("Value(%q) = %v, want %q", c.in, v, c.want)
		}
	}
}

func TestValueDateOnlyPassesThrough(t *testing.T) {
	v, err := Value("2026-03-14", TimeString)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "2026-03-14" {
		t.Errorf("date-only string must pass through unchanged, got %v", v)
	}
}

func TestValueUnparseableTimestampKeptWithError(t *testing.T) {
	in := "2026-13-99T99:99:99Z"
	v, err := Value(in, TimeString)
	if err == nil {
		t.Fatal("expected an error for an unparseable timestamp")
	}
	if v != in {
		t.Errorf("offending value must be left unconverted, got %v", v)
	}
}

func TestArgsKeepsLengthOnPartialFailure(t *testing.T) {
	out, err := Args([]any{"2026-13-99T99:99:99Z", 7}, TimeString)
	if err == nil {
		t.Fatal("expected a diagnostic error")
	}
	if len(out) != 2 || out[1] != 7 {
		t.Errorf("partial failure must not abort the list: %v", out)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	lit, err := Value(ts, TimeString)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	back, ok := Time(lit)
	if !ok {
		t.Fatalf("Time could not parse %v", lit)
	}
	if !back.Equal(ts.Truncate(time.Second)) {
		t.Errorf("round-trip mismatch: %v != %v", back, ts)
	}
}
