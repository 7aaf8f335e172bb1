package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from, to State
		ok       bool
	}{
		{Discovered, Restoring, true},
		{Restoring, Cleaning, true},
		{Cleaning, RestoringAgain, true},
		{RestoringAgain, Building, true},
		{Building, Testing, true},
		{Building, Packing, true}, // test stage skipped
		{Testing, Packing, true},
		{Packing, Publishing, true},
		{Publishing, DocsGenerating, true},
		{DocsGenerating, Done, true},
		{Building, Done, true}, // everything after build skipped

		{Building, Restoring, false},
		{Testing, Building, false},
		{Restoring, Restoring, false},
		{Done, Restoring, false},
		{Failed, Building, false},
	}
	for _, c := range cases {
		err := Transition(c.from, c.to)
		if c.ok {
			assert.NoError(t, err, "%s -> %s", c.from, c.to)
		} else {
			assert.Error(t, err, "%s -> %s", c.from, c.to)
		}
	}
}

func TestAnyStateMayFail(t *testing.T) {
	for s := range stateRank {
		if s == Done {
			continue
		}
		assert.NoError(t, Transition(s, Failed), "%s -> failed", s)
	}
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	assert.Error(t, Transition(Done, Failed))
	assert.Error(t, Transition(Failed, Failed))
	assert.True(t, Done.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, Building.Terminal())
}
