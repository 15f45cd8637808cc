package application

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

// LoadStudyConfig decodes YAML from r over DefaultStudyConfig, applies
// environment overrides from the process environment, and validates the
// result. An empty document yields the defaults.
func LoadStudyConfig(r io.Reader) (StudyConfig, error) {
	return loadStudyConfig(r, nil)
}

// LoadStudyConfigFile is LoadStudyConfig over the file at path.
func LoadStudyConfigFile(path string) (StudyConfig, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StudyConfig{}, ports.NewConfigError(path, ports.ErrConfigNotFound)
		}
		return StudyConfig{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()
	return LoadStudyConfig(f)
}

func loadStudyConfig(r io.Reader, environ map[string]string) (StudyConfig, error) {
	cfg := DefaultStudyConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return StudyConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := ApplyEnv(&cfg, environ); err != nil {
		return StudyConfig{}, err
	}
	if err := ValidateStudyConfig(cfg); err != nil {
		return StudyConfig{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields tagged with `env` from environ, or from the
// process environment when environ is nil. Unset variables leave fields
// unchanged.
func ApplyEnv(cfg *StudyConfig, environ map[string]string) error {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return ports.NewConfigError("env", err)
	}
	return nil
}

// ValidateStudyConfig runs struct validation and then checks that the
// feature catalogue it describes can be built.
func ValidateStudyConfig(cfg StudyConfig) error {
	v, err := NewValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("%w: struct validation failed: %w", domain.ErrInvalidConfiguration, err)
	}
	if _, err := cfg.FeatureCatalog(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
	}
	return nil
}
