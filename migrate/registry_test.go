package migrate

import (
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDuplicateFirstRegisteredWins(t *testing.T) {
	t.Parallel()

	first := tr("1.0.0", "1.1.0")
	first.Source = "first"
	second := tr("1.0.0", "1.1.0")
	second.Source = "second"

	graph, err := NewRegistry(discardLogger(),
		&testSource{name: "a", transitions: []Transition{first}},
		&testSource{name: "b", transitions: []Transition{second}},
	).Load()
	require.NoError(t, err)

	out := graph.Outgoing(semver.MustParse("1.0.0"))
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].Source)
}

func TestRegistryMalformedSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source *testSource
		expMsg string
	}{
		{
			name: "missing_from",
			source: &testSource{name: "bad", transitions: []Transition{
				{To: semver.MustParse("1.1.0"), Apply: noop},
			}},
			expMsg: "transition has no from version",
		},
		{
			name: "missing_to",
			source: &testSource{name: "bad", transitions: []Transition{
				{From: semver.MustParse("1.0.0"), Apply: noop},
			}},
			expMsg: "transition has no to version",
		},
		{
			name: "missing_operation",
			source: &testSource{name: "bad", transitions: []Transition{
				{From: semver.MustParse("1.0.0"), To: semver.MustParse("1.1.0")},
			}},
			expMsg: "transition has no operation",
		},
		{
			name:   "source_failure",
			source: &testSource{name: "bad", err: errors.New("boom")},
			expMsg: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// A healthy source ahead of the bad one must not produce a
			// partial graph.
			graph, err := NewRegistry(discardLogger(),
				&testSource{name: "good", transitions: []Transition{tr("1.0.0", "1.1.0")}},
				tt.source,
			).Load()

			var regErr *RegistryError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, "bad", regErr.Source)
			assert.ErrorContains(t, err, tt.expMsg)
			assert.Nil(t, graph)
		})
	}
}
