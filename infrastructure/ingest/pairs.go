package ingest

import (
	"fmt"
	"io"
	"math"

	"github.com/tidwall/gjson"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

const pairsSource = "pairs"

// ReadPairs parses a JSON list of [a, b] subject id pairs. Unlike snapshot
// reconciliation this is strict: any malformed entry rejects the whole
// file, since a silently shortened pair list would change what the rater
// is asked. Self-pairs are kept here and removed when pairs are prepared.
func ReadPairs(r io.Reader) ([]domain.RawPair, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ports.NewIngestError(pairsSource, 0, "", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, ports.NewIngestError(pairsSource, 0, "", fmt.Errorf("%w: not valid JSON", ports.ErrInvalidPairEntry))
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, ports.NewIngestError(pairsSource, 0, "", fmt.Errorf("%w: expected a list of pairs", ports.ErrInvalidPairEntry))
	}

	entries := root.Array()
	pairs := make([]domain.RawPair, 0, len(entries))
	for i, entry := range entries {
		row := i + 1
		if !entry.IsArray() {
			return nil, ports.NewIngestError(pairsSource, row, "", fmt.Errorf("%w: %s", ports.ErrInvalidPairEntry, entry.Raw))
		}
		ids := entry.Array()
		if len(ids) != 2 {
			return nil, ports.NewIngestError(pairsSource, row, "", fmt.Errorf("%w: %s has %d ids", ports.ErrInvalidPairEntry, entry.Raw, len(ids)))
		}
		a, okA := integral(ids[0])
		b, okB := integral(ids[1])
		if !okA || !okB {
			return nil, ports.NewIngestError(pairsSource, row, "", fmt.Errorf("%w: %s", ports.ErrInvalidPairEntry, entry.Raw))
		}
		pairs = append(pairs, domain.RawPair{A: a, B: b})
	}
	return pairs, nil
}

func integral(r gjson.Result) (int, bool) {
	if r.Type != gjson.Number || r.Num != math.Trunc(r.Num) || math.Abs(r.Num) > 1<<53 {
		return 0, false
	}
	return int(r.Num), true
}
