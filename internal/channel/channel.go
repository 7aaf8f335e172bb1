// Package channel classifies Git branch names into deployment channels and
// derives the path-safe branch identity used to partition artifact output.
// Classification is total: any input degrades to the unknown channel rather
// than an error, because CI must never hard-stop on an unexpected branch name.
package channel

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Channel is a deployment environment classification derived from branch name.
type Channel string

const (
	Development Channel = "development"
	Quality     Channel = "quality"
	Staging     Channel = "staging"
	Production  Channel = "production"
	Unknown     Channel = "unknown"
)

// Recognized returns the four channels with explicit policy rows, in table order.
func Recognized() []Channel {
	return []Channel{Development, Quality, Staging, Production}
}

// BranchIdentity is the sanitized identity of a branch. Slashes in the raw name
// become segment boundaries; every segment contains only path-safe characters.
type BranchIdentity struct {
	RawName  string
	Segments []string
}

// PathComponent joins the sanitized segments with dashes into a single
// path-safe token (used where nesting is not wanted, e.g. version suffixes).
func (b BranchIdentity) PathComponent() string {
	return strings.Join(b.Segments, "-")
}

// Affix carries the pre-release version suffix and the human-readable label
// for a channel. Suffix is empty exactly for the production channel.
type Affix struct {
	Suffix string
	Label  string
}

// DeploymentInfo is the run's release classification, derived once per run.
type DeploymentInfo struct {
	Channel Channel
	Affix   Affix
	Branch  BranchIdentity
}

// nugetSuffixLimit caps pre-release suffix length. Legacy feed clients reject
// pre-release labels longer than 20 characters.
const nugetSuffixLimit = 20

var channelAffixes = map[Channel]Affix{
	Development: {Suffix: "alpha", Label: "Development"},
	Quality:     {Suffix: "beta", Label: "Quality"},
	Staging:     {Suffix: "rc", Label: "Staging"},
	Production:  {Suffix: "", Label: "Production"},
}

// Classify maps a branch name to its deployment channel, affix and sanitized
// identity. Pure and total: it never fails, and the returned identity always
// has at least one non-empty segment.
func Classify(branchName string) DeploymentInfo {
	identity := sanitize(branchName)

	ch := Unknown
	for _, known := range Recognized() {
		if strings.EqualFold(branchName, string(known)) {
			ch = known
			break
		}
	}

	if ch != Unknown {
		return DeploymentInfo{Channel: ch, Affix: channelAffixes[ch], Branch: identity}
	}

	// Feature and other unrecognized branches stay distinguishable per branch:
	// the suffix is the sanitized branch identity, trimmed to what feeds accept.
	suffix := strings.ToLower(suffixSafe(identity.PathComponent()))
	if len(suffix) > nugetSuffixLimit {
		suffix = strings.Trim(suffix[:nugetSuffixLimit], "-")
	}
	if suffix == "" {
		suffix = string(Unknown)
	}
	return DeploymentInfo{
		Channel: Unknown,
		Affix:   Affix{Suffix: suffix, Label: "Feature"},
		Branch:  identity,
	}
}

// IsPreRelease reports whether the classification carries a pre-release suffix.
func (d DeploymentInfo) IsPreRelease() bool { return d.Affix.Suffix != "" }

// asciiFold decomposes accented letters and strips the combining marks so that
// branch names like "récit/été" sanitize to readable ASCII instead of dashes.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func sanitize(raw string) BranchIdentity {
	folded, _, err := transform.String(asciiFold, raw)
	if err != nil {
		folded = raw // fold is best-effort; the rune filter below still applies
	}

	var segments []string
	for _, part := range strings.Split(folded, "/") {
		seg := sanitizeSegment(part)
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		segments = []string{string(Unknown)}
	}
	return BranchIdentity{RawName: raw, Segments: segments}
}

// sanitizeSegment keeps [A-Za-z0-9._-] and substitutes "-" for everything
// else. All-dot segments ("." and "..") would be path traversal, so their dots
// are substituted too.
func sanitizeSegment(part string) string {
	if part == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(part))
	dotsOnly := true
	for _, r := range part {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
		if r != '.' {
			dotsOnly = false
		}
	}
	if dotsOnly {
		return strings.Repeat("-", len(part))
	}
	return b.String()
}

// suffixSafe narrows a path-safe token further to the [0-9a-z-] alphabet that
// every package feed accepts in pre-release labels.
func suffixSafe(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
