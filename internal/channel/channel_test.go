package channel

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRecognizedChannels(t *testing.T) {
	cases := []struct {
		branch string
		ch     Channel
		suffix string
		label  string
	}{
		{"development", Development, "alpha", "Development"},
		{"quality", Quality, "beta", "Quality"},
		{"staging", Staging, "rc", "Staging"},
		{"production", Production, "", "Production"},
		{"Production", Production, "", "Production"}, // case-insensitive
		{"DEVELOPMENT", Development, "alpha", "Development"},
	}
	for _, c := range cases {
		info := Classify(c.branch)
		assert.Equal(t, c.ch, info.Channel, c.branch)
		assert.Equal(t, c.suffix, info.Affix.Suffix, c.branch)
		assert.Equal(t, c.label, info.Affix.Label, c.branch)
		assert.Equal(t, c.branch, info.Branch.RawName)
	}
}

func TestOnlyProductionIsRelease(t *testing.T) {
	assert.False(t, Classify("production").IsPreRelease())
	assert.True(t, Classify("development").IsPreRelease())
	assert.True(t, Classify("feature/anything").IsPreRelease())
}

func TestFeatureBranchKeepsIdentity(t *testing.T) {
	info := Classify("feature/Add-Cool_Stuff")

	assert.Equal(t, Unknown, info.Channel)
	assert.Equal(t, "Feature", info.Affix.Label)
	assert.Equal(t, []string{"feature", "Add-Cool_Stuff"}, info.Branch.Segments)
	// Suffix is lowercase, underscore folded to dash, capped at 20 characters.
	assert.Equal(t, "feature-add-cool-stu", info.Affix.Suffix)
}

func TestSlashesBecomeSegments(t *testing.T) {
	info := Classify("bugfix/issue/1234")
	assert.Equal(t, []string{"bugfix", "issue", "1234"}, info.Branch.Segments)
	assert.Equal(t, "bugfix-issue-1234", info.Branch.PathComponent())
}

func TestAccentedNamesFoldToASCII(t *testing.T) {
	info := Classify("récit/été")
	assert.Equal(t, []string{"recit", "ete"}, info.Branch.Segments)
}

func TestDotSegmentsCannotTraverse(t *testing.T) {
	info := Classify("a/../b")
	assert.Equal(t, []string{"a", "--", "b"}, info.Branch.Segments)

	info = Classify("./hidden")
	for _, seg := range info.Branch.Segments {
		assert.NotEqual(t, ".", seg)
		assert.NotEqual(t, "..", seg)
	}
}

func TestDegenerateNamesDegradeToUnknown(t *testing.T) {
	for _, branch := range []string{"", "///", "日本語"} {
		info := Classify(branch)
		assert.Equal(t, Unknown, info.Channel, "%q", branch)
		require.NotEmpty(t, info.Branch.Segments, "%q", branch)
		assert.NotEmpty(t, info.Affix.Suffix, "%q", branch)
	}
	assert.Equal(t, []string{"unknown"}, Classify("").Branch.Segments)
}

// pathSafe is the alphabet sanitized segments are allowed to use.
func pathSafe(seg string) bool {
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return seg != ""
}

func TestClassifyIsTotalAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		length := rng.Intn(60)
		runes := make([]rune, length)
		for j := range runes {
			runes[j] = rune(rng.Intn(0x3000)) // ASCII through CJK punctuation
		}
		branch := string(runes)

		first := Classify(branch)
		second := Classify(branch)
		assert.Equal(t, first, second, "classification must be deterministic for %q", branch)

		require.NotEmpty(t, first.Branch.Segments, "%q", branch)
		for _, seg := range first.Branch.Segments {
			assert.True(t, pathSafe(seg), "segment %q of %q", seg, branch)
			assert.NotEqual(t, ".", seg)
			assert.NotEqual(t, "..", seg)
		}

		if first.Channel == Production {
			assert.Empty(t, first.Affix.Suffix)
		} else {
			assert.NotEmpty(t, first.Affix.Suffix, "%q", branch)
			assert.LessOrEqual(t, len(first.Affix.Suffix), 20, "%q", branch)
			assert.Equal(t, strings.ToLower(first.Affix.Suffix), first.Affix.Suffix, "%q", branch)
		}
	}
}
