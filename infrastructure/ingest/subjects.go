// Package ingest adapts external input files into validated domain values
// and writes session results back out. Coercion and defaulting of loosely
// typed cells happen here so the engine only sees clean records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

const subjectsSource = "subjects"

// Subject table column names.
const (
	ColumnID            = "patient_num"
	ColumnAge           = "age"
	ColumnRisk          = "risk"
	ColumnRiskBand      = "risk_band"
	ColumnSex           = "sex"
	ColumnBMI           = "bmi"
	ColumnAdherence     = "adherence"
	ColumnSmoker        = "smoker"
	ColumnSocioEconomic = "socio_economic"
)

var requiredColumns = []string{ColumnID, ColumnAge, ColumnRisk}

var attributeColumns = []string{
	ColumnID, ColumnAge, ColumnRisk, ColumnRiskBand, ColumnSex,
	ColumnBMI, ColumnAdherence, ColumnSmoker, ColumnSocioEconomic,
}

// maxHintDistance bounds the edit distance for "did you mean" hints.
const maxHintDistance = 3

// SubjectTable is the result of reading a subject file.
type SubjectTable struct {
	Subjects []domain.Subject

	// Warnings lists non-fatal findings such as unrecognised columns.
	Warnings []string
}

// SubjectReader reads subject tables in CSV form.
type SubjectReader struct {
	features *domain.FeatureCatalog
	validate *validator.Validate
	fold     cases.Caser
}

// NewSubjectReader creates a reader that recognises the feature columns of
// features and validates each row with v.
func NewSubjectReader(features *domain.FeatureCatalog, v *validator.Validate) *SubjectReader {
	if features == nil {
		features = domain.DefaultFeatureCatalog()
	}
	if v == nil {
		v = validator.New()
	}
	return &SubjectReader{features: features, validate: v, fold: cases.Fold()}
}

// Read parses a CSV subject table. Headers match case-insensitively.
// Feature columns absent from the file are treated as inactive; blank
// feature cells are inactive too.
func (sr *SubjectReader) Read(r io.Reader) (SubjectTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return SubjectTable{}, ports.NewIngestError(subjectsSource, 0, "", fmt.Errorf("empty file"))
	}
	if err != nil {
		return SubjectTable{}, ports.NewIngestError(subjectsSource, 0, "", err)
	}

	var table SubjectTable
	cols := make(map[string]int, len(header))
	known := sr.knownColumns()
	var unknown []string
	for i, h := range header {
		name := sr.fold.String(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; dup {
			return SubjectTable{}, ports.NewIngestError(subjectsSource, 0, name, fmt.Errorf("duplicate column"))
		}
		cols[name] = i
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}

	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			ierr := ports.NewIngestError(subjectsSource, 0, req, ports.ErrMissingColumn)
			if near := closest(req, unknown); near != "" {
				ierr.Hint = fmt.Sprintf("found %q, did you mean %q?", near, req)
			}
			return SubjectTable{}, ierr
		}
	}
	for _, u := range unknown {
		msg := fmt.Sprintf("ignoring unrecognised column %q", u)
		if near := closest(u, keys(known)); near != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", near)
		}
		table.Warnings = append(table.Warnings, msg)
	}

	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return SubjectTable{}, ports.NewIngestError(subjectsSource, row, "", err)
		}
		if blankRecord(rec) {
			continue
		}
		s, err := sr.parseRow(row, rec, cols)
		if err != nil {
			return SubjectTable{}, err
		}
		if err := sr.validate.Struct(s); err != nil {
			return SubjectTable{}, ports.NewIngestError(subjectsSource, row, "", err)
		}
		table.Subjects = append(table.Subjects, s)
	}
	return table, nil
}

func (sr *SubjectReader) knownColumns() map[string]struct{} {
	known := make(map[string]struct{}, len(attributeColumns)+len(sr.features.Codes()))
	for _, c := range attributeColumns {
		known[c] = struct{}{}
	}
	for _, c := range sr.features.Codes() {
		known[sr.fold.String(c)] = struct{}{}
	}
	return known
}

func (sr *SubjectReader) parseRow(row int, rec []string, cols map[string]int) (domain.Subject, error) {
	cell := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}
	requireInt := func(name string) (int, error) {
		v, _ := cell(name)
		n, err := coerceInt(v)
		if err != nil {
			return 0, ports.NewIngestError(subjectsSource, row, name, err)
		}
		return n, nil
	}
	optionalInt := func(name string) (int, error) {
		v, ok := cell(name)
		if !ok || isBlank(v) {
			return 0, nil
		}
		return requireInt(name)
	}

	var (
		s   domain.Subject
		err error
	)
	if s.ID, err = requireInt(ColumnID); err != nil {
		return s, err
	}
	if s.Age, err = requireInt(ColumnAge); err != nil {
		return s, err
	}
	if s.Risk, err = requireInt(ColumnRisk); err != nil {
		return s, err
	}
	if s.RiskBand, err = optionalInt(ColumnRiskBand); err != nil {
		return s, err
	}
	if v, ok := cell(ColumnBMI); ok && !isBlank(v) {
		s.BMI, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return s, ports.NewIngestError(subjectsSource, row, ColumnBMI, fmt.Errorf("%w: %q is not a number", ports.ErrInvalidCell, v))
		}
	}
	if v, ok := cell(ColumnSmoker); ok {
		s.Smoker, err = coerceBool(v)
		if err != nil {
			return s, ports.NewIngestError(subjectsSource, row, ColumnSmoker, err)
		}
	}
	s.Sex, _ = cell(ColumnSex)
	s.SocioEconomic, _ = cell(ColumnSocioEconomic)
	s.Adherence, _ = cell(ColumnAdherence)
	if isBlank(s.Adherence) {
		s.Adherence = domain.AdherenceNotApplicable
	}

	s.Features = make(domain.FeatureSet)
	for _, code := range sr.features.Codes() {
		col := sr.fold.String(code)
		n, err := optionalInt(col)
		if err != nil {
			return s, err
		}
		if n != 0 {
			s.Features[code] = struct{}{}
		}
	}
	return s, nil
}

// coerceInt accepts integers and integral decimals such as "3.0".
func coerceInt(v string) (int, error) {
	if isBlank(v) {
		return 0, fmt.Errorf("%w: value is required", ports.ErrInvalidCell)
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not an integer", ports.ErrInvalidCell, v)
	}
	return int(f), nil
}

func coerceBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "", "0", "0.0", "false", "no", "n", "nan":
		return false, nil
	case "1", "1.0", "true", "yes", "y":
		return true, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", ports.ErrInvalidCell, v)
}

func isBlank(v string) bool {
	return v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, "na")
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// closest returns the candidate within maxHintDistance of name, or "".
func closest(name string, candidates []string) string {
	best, bestDist := "", maxHintDistance+1
	for _, c := range candidates {
		if c == name {
			continue
		}
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func keys(m map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(m))
}
