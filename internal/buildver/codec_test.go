package buildver

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2001, 1, 1, 0, 1, 4, 0, time.UTC),
		time.Date(2019, 6, 15, 13, 37, 42, 0, time.UTC),
		time.Date(2026, 8, 24, 9, 0, 1, 0, time.UTC),
		time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC),
	}

	for _, in := range cases {
		v, err := Encode(in, 1, 2)
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", in, err)
		}
		got, err := Decode(v)
		if err != nil {
			t.Fatalf("Decode(%s) failed: %v", v, err)
		}

		// Decode recovers the input truncated to the quantization interval.
		truncated := in.Add(-time.Duration(in.Unix()%QuantumSeconds) * time.Second)
		wantQuanta := (in.Unix() - windowStart.Unix()) / QuantumSeconds
		want := windowStart.Add(time.Duration(wantQuanta*QuantumSeconds) * time.Second)
		if !got.Equal(want) {
			t.Errorf("Decode(Encode(%s)) = %s, want %s (truncated reference %s)", in, got, want, truncated)
		}
		if got.After(in) {
			t.Errorf("decoded time %s must not exceed input %s", got, in)
		}
		if in.Sub(got) >= QuantumSeconds*time.Second {
			t.Errorf("decoded time %s more than one quantum before input %s", got, in)
		}
	}
}

func TestEncodeMonotonic(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	// Any two instants more than one quantum apart must order strictly.
	steps := []time.Duration{
		QuantumSeconds*time.Second + time.Second,
		5 * time.Minute,
		3 * time.Hour,
		26 * time.Hour, // crosses a midnight boundary
		400 * 24 * time.Hour,
	}

	prev, err := Encode(base, 1, 0)
	if err != nil {
		t.Fatalf("Encode base: %v", err)
	}
	cursor := base
	for _, step := range steps {
		cursor = cursor.Add(step)
		next, err := Encode(cursor, 1, 0)
		if err != nil {
			t.Fatalf("Encode(%s): %v", cursor, err)
		}
		if !Less(prev, next) {
			t.Fatalf("expected %s < %s for times %s apart", prev, next, step)
		}
		prev = next
	}
}

func TestEncodeSameQuantumCollides(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	a, _ := Encode(base, 1, 0)
	b, _ := Encode(base.Add(3*time.Second), 1, 0)
	if Compare(a, b) != 0 {
		t.Fatalf("times inside one quantum should encode identically: %s vs %s", a, b)
	}
}

func TestEncodeRevisionRollsIntoMinor(t *testing.T) {
	// Pick the last quantum of a Minor period and step one quantum forward.
	quanta := int64(5)*fieldRange - 1
	edge := windowStart.Add(time.Duration(quanta*QuantumSeconds) * time.Second)

	v1, err := Encode(edge, 0, 0)
	if err != nil {
		t.Fatalf("Encode edge: %v", err)
	}
	if v1.Minor != 4 || v1.Revision != fieldRange-1 {
		t.Fatalf("expected 4.%d fine fields, got %d.%d", fieldRange-1, v1.Minor, v1.Revision)
	}

	v2, err := Encode(edge.Add(QuantumSeconds*time.Second), 0, 0)
	if err != nil {
		t.Fatalf("Encode past edge: %v", err)
	}
	if v2.Minor != 5 || v2.Revision != 0 {
		t.Fatalf("expected rollover to 5.0, got %d.%d", v2.Minor, v2.Revision)
	}
	if !Less(v1, v2) {
		t.Fatal("rollover must preserve ordering")
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	before := time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)
	if _, err := Encode(before, 1, 0); err == nil {
		t.Fatal("expected range error for pre-window timestamp")
	} else {
		var oor *ErrOutOfRange
		if !errors.As(err, &oor) {
			t.Fatalf("expected *ErrOutOfRange, got %T", err)
		}
	}

	after := windowEnd.Add(time.Second)
	if _, err := Encode(after, 1, 0); err == nil {
		t.Fatal("expected range error for post-window timestamp")
	}

	// The window end itself is exclusive.
	if _, err := Encode(windowEnd, 1, 0); err == nil {
		t.Fatal("window end must be rejected")
	}
	if _, err := Encode(windowEnd.Add(-time.Second), 1, 0); err != nil {
		t.Fatalf("instant just inside the window must encode: %v", err)
	}
}

func TestFullRendering(t *testing.T) {
	v, err := Encode(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), 3, 14)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "3.14."
	if len(v.Full) < len(want) || v.Full[:len(want)] != want {
		t.Fatalf("Full rendering should begin with %q, got %q", want, v.Full)
	}
	if v.String() != v.Full {
		t.Fatal("String() must equal Full")
	}
}

func TestParseFullRoundTrip(t *testing.T) {
	v, err := Encode(time.Date(2025, 11, 9, 4, 20, 0, 0, time.UTC), 7, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parsed, err := ParseFull(v.Full)
	if err != nil {
		t.Fatalf("ParseFull(%q): %v", v.Full, err)
	}
	if Compare(v, parsed) != 0 {
		t.Fatalf("round-trip mismatch: %v vs %v", v, parsed)
	}

	if _, err := ParseFull("1.2.3"); err == nil {
		t.Fatal("three fields must be rejected")
	}
	if _, err := ParseFull("1.2.3.999999"); err == nil {
		t.Fatal("field overflow must be rejected")
	}
}

func TestPackageVersion(t *testing.T) {
	v, _ := Encode(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), 1, 0)
	if got := v.PackageVersion(""); got != v.Full {
		t.Fatalf("stable package version should be the plain Full form, got %q", got)
	}
	if got := v.PackageVersion("beta"); got != v.Full+"-beta" {
		t.Fatalf("pre-release package version should append the suffix, got %q", got)
	}
}
