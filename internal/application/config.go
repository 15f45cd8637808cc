package application

import (
	"time"

	"github.com/ahrav/go-rankstudy/internal/domain"
)

// StudyConfig defines how a ranking study runs: orientation seed, where
// snapshots are kept, how often they are written, and which features are
// shown. It is the primary configuration entry point for the CLI.
type StudyConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning.
	Version string `yaml:"version" validate:"required,semver"`
	// Seed fixes the left/right orientation of every pair. Changing it
	// between sessions changes what raters see but not how snapshots
	// reconcile.
	Seed uint64 `yaml:"seed" env:"RANKSTUDY_SEED"`
	// RaterID optionally pre-fills the rater identity.
	RaterID string `yaml:"rater_id" env:"RANKSTUDY_RATER_ID" validate:"max=255"`
	// MissingIDDisplayLimit caps the ids listed when a pair list references
	// unknown subjects.
	MissingIDDisplayLimit int `yaml:"missing_id_display_limit" validate:"min=1,max=1000"`
	// Storage selects the snapshot store.
	Storage StorageConfig `yaml:"storage" validate:"required"`
	// Autosave throttles snapshot writes during rating.
	Autosave AutosaveConfig `yaml:"autosave"`
	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
	// Features overrides the built-in feature catalogue when non-empty.
	Features []domain.Feature `yaml:"features" validate:"omitempty,max=500,dive"`
	// CategoryOrder sets category precedence explicitly. When empty,
	// categories rank by first appearance in Features.
	CategoryOrder []string `yaml:"category_order" validate:"omitempty,max=100,dive,min=1,max=100"`
}

// StorageConfig selects and configures the snapshot store.
type StorageConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `yaml:"driver" env:"RANKSTUDY_STORAGE_DRIVER" validate:"required,oneof=memory sqlite"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `yaml:"sqlite_path" env:"RANKSTUDY_SQLITE_PATH" validate:"required_if=Driver sqlite"`
}

// AutosaveConfig controls how often progress is persisted while rating.
type AutosaveConfig struct {
	// MinInterval is the minimum gap between two autosaves. Zero saves
	// after every submission. The final submission always saves.
	MinInterval time.Duration `yaml:"min_interval" env:"RANKSTUDY_AUTOSAVE_INTERVAL" validate:"gte=0"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `yaml:"addr" env:"RANKSTUDY_METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// DefaultStudyConfig returns the configuration used when no file is given.
func DefaultStudyConfig() StudyConfig {
	return StudyConfig{
		Version:               "1.0.0",
		Seed:                  DefaultSeed,
		MissingIDDisplayLimit: domain.DefaultMissingIDDisplayLimit,
		Storage:               StorageConfig{Driver: "memory"},
	}
}

// FeatureCatalog builds the feature catalogue described by the config.
func (c StudyConfig) FeatureCatalog() (*domain.FeatureCatalog, error) {
	features := c.Features
	if len(features) == 0 {
		features = domain.DefaultFeatures()
	}
	return domain.NewFeatureCatalog(features, c.CategoryOrder)
}
