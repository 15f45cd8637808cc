package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ahrav/go-rankstudy/internal/domain"
)

// ResultsFileName returns the export file name for a session finished at t.
func ResultsFileName(t time.Time) string {
	return fmt.Sprintf("rankings_%s.json", t.UTC().Format("20060102_150405"))
}

// WriteResults encodes results as a JSON list of
// [[chosen, other], confidence] entries.
func WriteResults(w io.Writer, results []domain.Result) error {
	if results == nil {
		results = []domain.Result{}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// WritePreview writes results as a chosen,other,confidence CSV table.
func WritePreview(w io.Writer, results []domain.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"chosen", "other", "confidence"}); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{
			strconv.Itoa(r.Pair.A),
			strconv.Itoa(r.Pair.B),
			strconv.Itoa(r.Confidence),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
