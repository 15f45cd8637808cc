package ingest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rankstudy/internal/domain"
)

func TestResultsFileName(t *testing.T) {
	at := time.Date(2024, 2, 29, 13, 5, 9, 0, time.UTC)
	assert.Equal(t, "rankings_20240229_130509.json", ResultsFileName(at))
}

func TestWriteResults(t *testing.T) {
	results := []domain.Result{
		{Pair: domain.RawPair{A: 11, B: 10}, Confidence: 4},
		{Pair: domain.RawPair{A: 12, B: 13}, Confidence: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results))
	assert.JSONEq(t, `[[[11,10],4],[[12,13],2]]`, buf.String())

	buf.Reset()
	require.NoError(t, WriteResults(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWritePreview(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, []domain.Result{{Pair: domain.RawPair{A: 3, B: 1}, Confidence: 5}}))
	assert.Equal(t, "chosen,other,confidence\n3,1,5\n", buf.String())
}
