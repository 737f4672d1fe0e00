package mol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/molgrid/pkg/errors"
)

func TestReadJSONArray(t *testing.T) {
	in := `[
	  {"title": "water", "atoms": [{"symbol": "O"}, {"symbol": "H", "x": 1}, {"symbol": "H", "y": 1}],
	   "bonds": [{"begin": 0, "end": 1}, {"begin": 0, "end": 2}]},
	  {"kind": "reaction"},
	  {"title": "neon", "atoms": [{"symbol": "Ne"}]}
	]`
	objs, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, objs, 3)

	m, ok := objs[0].Molecule()
	require.True(t, ok)
	assert.Equal(t, "water", m.Title)
	assert.Equal(t, 3, m.NumAtoms())

	_, ok = objs[1].Molecule()
	assert.False(t, ok)

	m, ok = objs[2].Molecule()
	require.True(t, ok)
	assert.Equal(t, "neon", m.Title)
}

func TestReadJSONStream(t *testing.T) {
	in := `{"title": "a", "atoms": [{"symbol": "C"}]}
{"title": "b", "atoms": [{"symbol": "N"}]}
`
	objs, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, objs, 2)
}

func TestReadJSONEmpty(t *testing.T) {
	for _, in := range []string{"", "  \n", "[]"} {
		objs, err := ReadJSON(strings.NewReader(in))
		require.NoError(t, err, "input %q", in)
		assert.Empty(t, objs, "input %q", in)
	}
}

func TestReadJSONInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad bond", `[{"atoms": [{"symbol": "C"}], "bonds": [{"begin": 0, "end": 3}]}]`},
		{"self bond", `[{"atoms": [{"symbol": "C"}], "bonds": [{"begin": 0, "end": 0}]}]`},
		{"missing symbol", `[{"atoms": [{}]}]`},
		{"bad order", `[{"atoms": [{"symbol": "C"}, {"symbol": "C"}], "bonds": [{"begin": 0, "end": 1, "order": 5}]}]`},
		{"bad alias", `[{"atoms": [{"symbol": "C", "alias": "Me", "expanded": [7]}]}]`},
		{"syntax", `[{"atoms": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
		})
	}
}

func TestWriteJSONReadable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []*Molecule{ethanol()}))

	objs, err := ReadJSON(&buf)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	m, _ := objs[0].Molecule()
	assert.Equal(t, ethanol().Atoms, m.Atoms)
}
