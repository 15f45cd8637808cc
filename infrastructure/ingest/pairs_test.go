package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

func TestReadPairs(t *testing.T) {
	pairs, err := ReadPairs(strings.NewReader(`[[10, 11], [12, 13.0], [5, 5]]`))
	require.NoError(t, err)
	assert.Equal(t, []domain.RawPair{{A: 10, B: 11}, {A: 12, B: 13}, {A: 5, B: 5}}, pairs)

	pairs, err = ReadPairs(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestReadPairs_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		row   int
	}{
		{name: "not json", input: `[[1, 2]`, row: 0},
		{name: "not a list", input: `{"pairs": []}`, row: 0},
		{name: "entry not a list", input: `[[1, 2], 3]`, row: 2},
		{name: "three ids", input: `[[1, 2, 3]]`, row: 1},
		{name: "string id", input: `[[1, 2], [3, "4"]]`, row: 2},
		{name: "fractional id", input: `[[1.5, 2]]`, row: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPairs(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrInvalidPairEntry)

			var ierr *ports.IngestError
			require.ErrorAs(t, err, &ierr)
			assert.Equal(t, "pairs", ierr.Source)
			assert.Equal(t, tt.row, ierr.Row)
		})
	}
}
