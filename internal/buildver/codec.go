// Package buildver encodes a point in time into the four-field build version
// used to stamp every artifact a pipeline run produces. The caller supplies the
// coarse Build/Major pair; Minor and Revision are derived from wall-clock time
// at a fixed 64-second quantization so that two runs started more than one
// quantum apart always sort distinctly. Runs inside the same quantum collide by
// design: version identity is monotonic at human timescales, not unique per
// invocation. The encoding is invertible back to the quantized timestamp.
package buildver

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuantumSeconds is the time granularity of the fine-grained fields. One
// Revision step represents this many seconds; Revision overflow rolls into Minor.
const QuantumSeconds = 64

const fieldRange = 1 << 16 // uint16 value space for Minor/Revision

// windowStart anchors the encoding. All encodable timestamps lie in
// [windowStart, windowEnd); values outside report a range error, never wrap.
var windowStart = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// windowEnd is the first instant no longer representable: windowStart plus the
// full 32-bit quanta space. Computed in Unix seconds; the span exceeds what a
// time.Duration can hold in nanoseconds.
var windowEnd = time.Unix(windowStart.Unix()+int64(fieldRange)*int64(fieldRange)*QuantumSeconds, 0).UTC()

// ErrOutOfRange reports a timestamp outside the encodable window.
type ErrOutOfRange struct {
	T time.Time
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("timestamp %s outside encodable window [%s, %s)",
		e.T.UTC().Format(time.RFC3339), windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339))
}

// Version is a four-field build version. Full is the canonical dot-joined
// rendering of the four numeric fields; it is computed at construction and the
// value is immutable thereafter.
type Version struct {
	Build    uint16 `json:"build" yaml:"build"`
	Major    uint16 `json:"major" yaml:"major"`
	Minor    uint16 `json:"minor" yaml:"minor"`
	Revision uint16 `json:"revision" yaml:"revision"`
	Full     string `json:"full" yaml:"full"`
}

// Encode derives a Version from t. Build and Major are caller-supplied; Minor
// and Revision encode the number of 64-second quanta elapsed since the window
// start, Revision holding the low 16 bits and Minor the high 16. Timestamps
// outside the window return *ErrOutOfRange.
func Encode(t time.Time, build, major uint16) (Version, error) {
	utc := t.UTC()
	if utc.Before(windowStart) || !utc.Before(windowEnd) {
		return Version{}, &ErrOutOfRange{T: t}
	}

	quanta := utc.Unix() - windowStart.Unix()
	quanta /= QuantumSeconds

	v := Version{
		Build:    build,
		Major:    major,
		Minor:    uint16(quanta / fieldRange),
		Revision: uint16(quanta % fieldRange),
	}
	v.Full = render(v)
	return v, nil
}

// Decode recovers the timestamp a Version was encoded from, truncated to the
// codec's 64-second resolution. Build and Major carry no time information and
// are ignored.
func Decode(v Version) (time.Time, error) {
	quanta := int64(v.Minor)*fieldRange + int64(v.Revision)
	return time.Unix(windowStart.Unix()+quanta*QuantumSeconds, 0).UTC(), nil
}

// ParseFull parses a canonical dot-joined rendering back into a Version.
// Used when reading versions back out of run history.
func ParseFull(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return Version{}, fmt.Errorf("version %q: expected four dot-separated fields", s)
	}
	fields := make([]uint16, 4)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Version{}, fmt.Errorf("version %q: field %d: %w", s, i+1, err)
		}
		fields[i] = uint16(n)
	}
	v := Version{Build: fields[0], Major: fields[1], Minor: fields[2], Revision: fields[3]}
	v.Full = render(v)
	return v, nil
}

// Compare orders versions field-wise (Build, Major, Minor, Revision).
// Returns -1, 0 or +1.
func Compare(a, b Version) int {
	pairs := [4][2]uint16{
		{a.Build, b.Build},
		{a.Major, b.Major},
		{a.Minor, b.Minor},
		{a.Revision, b.Revision},
	}
	for _, p := range pairs {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}
	return 0
}

// Less reports whether a sorts before b under field-wise ordering.
func Less(a, b Version) bool { return Compare(a, b) < 0 }

// PackageVersion renders the version string used for package artifacts:
// the canonical Full form plus a pre-release suffix when one applies
// (empty suffix means a stable production version).
func (v Version) PackageVersion(suffix string) string {
	if suffix == "" {
		return v.Full
	}
	return v.Full + "-" + suffix
}

func (v Version) String() string { return v.Full }

func render(v Version) string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Build, v.Major, v.Minor, v.Revision)
}
