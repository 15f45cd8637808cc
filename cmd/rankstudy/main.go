// Command rankstudy runs one rater through a pairwise ranking session in
// the terminal: it loads a subject table and a pair list, restores any
// saved progress, asks for one judgment per pair, and writes the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-rankstudy/infrastructure/ingest"
	"github.com/ahrav/go-rankstudy/infrastructure/storage/memory"
	"github.com/ahrav/go-rankstudy/infrastructure/storage/sqlite"
	"github.com/ahrav/go-rankstudy/infrastructure/telemetry"
	"github.com/ahrav/go-rankstudy/internal/application"
	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "rankstudy: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath   string
	subjectsPath string
	pairsPath    string
	raterID      string
	outDir       string
	verbose      bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("rankstudy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to the study YAML config (optional)")
	fs.StringVar(&opts.subjectsPath, "subjects", "", "Subject table (CSV)")
	fs.StringVar(&opts.pairsPath, "pairs", "", "Pair list (JSON list of [a, b])")
	fs.StringVar(&opts.raterID, "rater", "", "Rater identifier (prompted when empty)")
	fs.StringVar(&opts.outDir, "out", ".", "Directory for the results file")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.subjectsPath == "" || opts.pairsPath == "" {
		return options{}, fmt.Errorf("both -subjects and -pairs are required")
	}
	return opts, nil
}

func loadConfig(path string) (application.StudyConfig, error) {
	if path == "" {
		cfg := application.DefaultStudyConfig()
		if err := application.ApplyEnv(&cfg, nil); err != nil {
			return application.StudyConfig{}, err
		}
		return cfg, application.ValidateStudyConfig(cfg)
	}
	return application.LoadStudyConfigFile(path)
}

func openStore(ctx context.Context, cfg application.StorageConfig) (ports.SnapshotStore, func() error, error) {
	switch cfg.Driver {
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return memory.New(), func() error { return nil }, nil
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	features, err := cfg.FeatureCatalog()
	if err != nil {
		return err
	}
	v, err := application.NewValidator()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("close snapshot store", "error", cerr)
		}
	}()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewPrometheusMetrics(reg)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
	}

	var (
		table ingest.SubjectTable
		pairs []domain.RawPair
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := os.Open(filepath.Clean(opts.subjectsPath))
		if err != nil {
			return fmt.Errorf("open subjects: %w", err)
		}
		defer f.Close()
		table, err = ingest.NewSubjectReader(features, v).Read(f)
		return err
	})
	g.Go(func() error {
		f, err := os.Open(filepath.Clean(opts.pairsPath))
		if err != nil {
			return fmt.Errorf("open pairs: %w", err)
		}
		defer f.Close()
		pairs, err = ingest.ReadPairs(f)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	for _, w := range table.Warnings {
		logger.Warn(w)
	}

	catalog, err := application.NewCatalog(table.Subjects)
	if err != nil {
		return err
	}

	svc := application.NewStudyService(store,
		application.WithLogger(logger),
		application.WithMetrics(metrics),
		application.WithSeed(cfg.Seed),
		application.WithAutosaveInterval(cfg.Autosave.MinInterval),
		application.WithPlanner(application.NewAlignmentPlanner(features)),
	)

	d := newDriver(svc, stdin, stdout, cfg.MissingIDDisplayLimit)
	raterID := opts.raterID
	if raterID == "" {
		raterID = cfg.RaterID
	}
	results, err := d.run(ctx, raterID, catalog, pairs)
	if err != nil {
		return err
	}
	if results == nil {
		return nil
	}
	return writeResults(opts.outDir, results, stdout)
}

func writeResults(dir string, results []domain.Result, stdout io.Writer) error {
	path := filepath.Join(filepath.Clean(dir), ingest.ResultsFileName(time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	if err := ingest.WriteResults(f, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close results file: %w", err)
	}
	fmt.Fprintf(stdout, "\nCompleted pairs: %d\n", len(results))
	if err := ingest.WritePreview(stdout, results); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Results written to %s\n", path)
	return nil
}
