package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ahrav/go-rankstudy/internal/application"
	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

// errQuit signals that the rater left before finishing.
var errQuit = errors.New("quit")

// errRestart signals that the rater asked to restart the iteration.
var errRestart = errors.New("restart")

// driver runs the interactive prompt loop over a StudyService.
type driver struct {
	svc     *application.StudyService
	in      *bufio.Scanner
	out     io.Writer
	idLimit int
}

func newDriver(svc *application.StudyService, in io.Reader, out io.Writer, idLimit int) *driver {
	return &driver{svc: svc, in: bufio.NewScanner(in), out: out, idLimit: idLimit}
}

// prompt prints label and returns the next trimmed input line.
func (d *driver) prompt(label string) (string, error) {
	fmt.Fprint(d.out, label)
	if !d.in.Scan() {
		if err := d.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(d.in.Text()), nil
}

// run drives one rater to completion. It returns nil results when the
// rater quits early; progress is saved first.
func (d *driver) run(ctx context.Context, raterID string, catalog ports.SubjectCatalog, pairs []domain.RawPair) ([]domain.Result, error) {
	for raterID == "" {
		line, err := d.prompt("Rater id: ")
		if err != nil {
			return nil, nil
		}
		raterID = line
	}

	for {
		results, err := d.session(ctx, raterID, catalog, pairs)
		switch {
		case errors.Is(err, errRestart):
			fmt.Fprintln(d.out, "\nRestarting this iteration from the last saved progress.")
			continue
		case errors.Is(err, errQuit):
			return nil, nil
		default:
			return results, err
		}
	}
}

func (d *driver) session(ctx context.Context, raterID string, catalog ports.SubjectCatalog, pairs []domain.RawPair) ([]domain.Result, error) {
	sess, report, err := d.svc.Open(ctx, raterID, catalog, pairs)
	if err != nil {
		var unknown *domain.UnknownSubjectError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("the following patient_num are missing from the subject table: %s",
				unknown.Display(d.idLimit))
		}
		return nil, err
	}

	brief, err := sess.Briefing()
	if err != nil {
		return nil, err
	}
	d.printBriefing(brief, report)
	if _, err := d.prompt("Press Enter to start: "); err != nil {
		return nil, err
	}
	if err := sess.Begin(); err != nil {
		return nil, err
	}

	limiter := d.svc.NewAutosaveLimiter()
	for !sess.ReadyToFinish() {
		pair, err := sess.Current()
		if err != nil {
			return nil, err
		}
		d.printPair(pair, sess.Cursor(), sess.Total())

		choice, err := d.askChoice(ctx, sess)
		if err != nil {
			return nil, err
		}
		for {
			conf, err := d.askConfidence(ctx, sess)
			if err != nil {
				return nil, err
			}
			_, err = d.svc.Submit(ctx, sess, limiter, choice, conf)
			if errors.Is(err, domain.ErrInvalidConfidence) || errors.Is(err, domain.ErrInvalidChoice) {
				fmt.Fprintf(d.out, "  %v\n", err)
				continue
			}
			if err != nil && sess.Cursor() == pair.Index {
				return nil, err
			}
			if err != nil {
				fmt.Fprintf(d.out, "  warning: %v\n", err)
			}
			break
		}
	}

	fmt.Fprintln(d.out, "\nAll pairs completed. Thank you!")
	if _, err := d.prompt("Press Enter to finish and write results: "); err != nil {
		return nil, err
	}
	return d.svc.Finish(ctx, sess)
}

func (d *driver) askChoice(ctx context.Context, sess *application.Session) (domain.Choice, error) {
	for {
		line, err := d.prompt("Which patient should be prioritized for proactive intervention? [x/y, r=restart, q=save and quit]: ")
		if errors.Is(err, errQuit) {
			return "", d.saveAndQuit(ctx, sess)
		}
		if err != nil {
			return "", err
		}
		switch strings.ToLower(line) {
		case "x", "left":
			return domain.ChoiceLeft, nil
		case "y", "right":
			return domain.ChoiceRight, nil
		case "q":
			return "", d.saveAndQuit(ctx, sess)
		case "r":
			ok, err := d.confirmRestart(sess)
			if err != nil {
				return "", err
			}
			if ok {
				if _, err := d.svc.Restart(ctx, sess); err != nil {
					return "", err
				}
				return "", errRestart
			}
		default:
			fmt.Fprintln(d.out, "  please answer x or y")
		}
	}
}

func (d *driver) askConfidence(ctx context.Context, sess *application.Session) (int, error) {
	fmt.Fprintln(d.out, "How sure are you?")
	for c := domain.MaxConfidence; c >= domain.MinConfidence; c-- {
		fmt.Fprintf(d.out, "  %s\n", domain.ConfidenceLabel(c))
	}
	for {
		line, err := d.prompt("Confidence [1-5]: ")
		if errors.Is(err, errQuit) {
			return 0, d.saveAndQuit(ctx, sess)
		}
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(d.out, "  please enter a number from 1 to 5")
			continue
		}
		return n, nil
	}
}

func (d *driver) confirmRestart(sess *application.Session) (bool, error) {
	answered := sess.Progress().Answered()
	line, err := d.prompt(fmt.Sprintf("Restart discards unsaved answers (%d answered in this session). Type yes to confirm: ", answered))
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "yes"), nil
}

func (d *driver) saveAndQuit(ctx context.Context, sess *application.Session) error {
	if _, err := d.svc.Save(ctx, sess); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	fmt.Fprintf(d.out, "\nProgress saved (%d of %d pairs). Run again to continue.\n",
		sess.Progress().Answered(), sess.Total())
	return errQuit
}

func (d *driver) printBriefing(b application.Briefing, report application.ReconcileReport) {
	fmt.Fprintln(d.out, "Before you begin")
	fmt.Fprintln(d.out, "- You will see pairs of patients side by side (named X and Y).")
	fmt.Fprintln(d.out, "- Pick which patient should be prioritized for proactive intervention.")
	fmt.Fprintln(d.out, "- Then choose how sure you are (1-5).")
	fmt.Fprintf(d.out, "\nPairs to review: %d (%d patients)\n", b.TotalPairs, b.UniqueSubjects)
	if b.DroppedPairs > 0 {
		fmt.Fprintf(d.out, "Skipped %d pairs that compared a patient with itself.\n", b.DroppedPairs)
	}
	if report.Placed > 0 || report.Corrupt || len(report.Problems) > 0 {
		fmt.Fprintf(d.out, "Resumed: %s.\n", report.Summary())
	}
}

func (d *driver) printPair(pair domain.PreparedPair, cursor, total int) {
	fmt.Fprintf(d.out, "\nPair %d of %d\n", cursor+1, total)
	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	l, r := pair.Left, pair.Right
	fmt.Fprintf(tw, "\tPatient X\tPatient Y\n")
	fmt.Fprintf(tw, "Age\t%d %s\t%d %s\n", l.Age, l.AgeUnit(), r.Age, r.AgeUnit())
	fmt.Fprintf(tw, "CVD risk (1-40)\t%d\t%d\n", l.Risk, r.Risk)
	fmt.Fprintf(tw, "Risk band\t%d\t%d\n", l.RiskBand, r.RiskBand)
	fmt.Fprintf(tw, "Sex\t%s\t%s\n", orDash(l.Sex), orDash(r.Sex))
	fmt.Fprintf(tw, "BMI\t%.1f\t%.1f\n", l.BMI, r.BMI)
	fmt.Fprintf(tw, "Smoker\t%s\t%s\n", yesNo(l.Smoker), yesNo(r.Smoker))
	fmt.Fprintf(tw, "Adherence\t%s\t%s\n", l.Adherence, r.Adherence)
	fmt.Fprintf(tw, "Socio-economic\t%s\t%s\n", orDash(l.SocioEconomic), orDash(r.SocioEconomic))

	rows := d.svc.Planner().Layout(l, r)
	if len(rows) == 0 {
		fmt.Fprintf(tw, "Recommendations\t%s\t%s\n", domain.NoActiveFeaturesText, domain.NoActiveFeaturesText)
	}
	category := ""
	for _, row := range rows {
		if row.Category != category {
			category = row.Category
			fmt.Fprintf(tw, "[%s]\t\t\n", category)
		}
		fmt.Fprintf(tw, "\t%s\t%s\n", featureText(row.Left), featureText(row.Right))
	}
	_ = tw.Flush()
}

func featureText(f *domain.Feature) string {
	if f == nil {
		return "-"
	}
	return f.Text
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
