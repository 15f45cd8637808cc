package application

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

// TestLoadStudyConfig tests YAML decoding, environment overrides, and
// validation of StudyConfig.
func TestLoadStudyConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		environ map[string]string
		wantErr error
		errMsg  string
		verify  func(t *testing.T, cfg StudyConfig)
	}{
		{
			name: "empty document yields defaults",
			yaml: "",
			verify: func(t *testing.T, cfg StudyConfig) {
				assert.Equal(t, DefaultStudyConfig(), cfg)
			},
		},
		{
			name: "full sqlite config",
			yaml: `
version: "1.2.0"
seed: 7
rater_id: alice
missing_id_display_limit: 5
storage:
  driver: sqlite
  sqlite_path: /tmp/rank.db
autosave:
  min_interval: 30s
metrics:
  addr: "localhost:9090"
`,
			verify: func(t *testing.T, cfg StudyConfig) {
				assert.Equal(t, "1.2.0", cfg.Version)
				assert.Equal(t, uint64(7), cfg.Seed)
				assert.Equal(t, "alice", cfg.RaterID)
				assert.Equal(t, 5, cfg.MissingIDDisplayLimit)
				assert.Equal(t, "sqlite", cfg.Storage.Driver)
				assert.Equal(t, "/tmp/rank.db", cfg.Storage.SQLitePath)
				assert.Equal(t, 30*time.Second, cfg.Autosave.MinInterval)
				assert.Equal(t, "localhost:9090", cfg.Metrics.Addr)
			},
		},
		{
			name: "environment overrides file",
			yaml: `
seed: 7
storage:
  driver: memory
`,
			environ: map[string]string{
				"RANKSTUDY_SEED":           "99",
				"RANKSTUDY_STORAGE_DRIVER": "sqlite",
				"RANKSTUDY_SQLITE_PATH":    "env.db",
				"RANKSTUDY_RATER_ID":       "env-rater",
			},
			verify: func(t *testing.T, cfg StudyConfig) {
				assert.Equal(t, uint64(99), cfg.Seed)
				assert.Equal(t, "sqlite", cfg.Storage.Driver)
				assert.Equal(t, "env.db", cfg.Storage.SQLitePath)
				assert.Equal(t, "env-rater", cfg.RaterID)
			},
		},
		{
			name: "custom features",
			yaml: `
features:
  - {code: lipids, category: Labs, text: Lipid panel}
  - {code: statin, category: Treatment, text: Start statin}
category_order: [Treatment, Labs]
`,
			verify: func(t *testing.T, cfg StudyConfig) {
				fc, err := cfg.FeatureCatalog()
				require.NoError(t, err)
				assert.Equal(t, []string{"Treatment", "Labs"}, fc.Categories())
				assert.Equal(t, []string{"lipids", "statin"}, fc.Codes())
			},
		},
		{
			name:   "unknown field",
			yaml:   "sead: 4\n",
			errMsg: "failed to parse YAML",
		},
		{
			name:    "bad version",
			yaml:    "version: v1\n",
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name:    "sqlite without path",
			yaml:    "storage: {driver: sqlite}\n",
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name:    "unsupported driver",
			yaml:    "storage: {driver: postgres}\n",
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name: "bad feature code",
			yaml: `
features:
  - {code: Rec-1, category: Labs, text: x}
`,
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name: "category order missing a category",
			yaml: `
features:
  - {code: a, category: Labs, text: x}
  - {code: b, category: Treatment, text: y}
category_order: [Labs]
`,
			wantErr: domain.ErrInvalidConfiguration,
			errMsg:  `category "Treatment" missing from category order`,
		},
		{
			name:    "unparseable env seed",
			environ: map[string]string{"RANKSTUDY_SEED": "many"},
			errMsg:  "config error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := tt.environ
			if environ == nil {
				environ = map[string]string{}
			}
			cfg, err := loadStudyConfig(strings.NewReader(tt.yaml), environ)
			if tt.wantErr != nil || tt.errMsg != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadStudyConfigFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadStudyConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ports.ErrConfigNotFound)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "study.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: \"2.0.0\"\nseed: 3\n"), 0o600))
		cfg, err := LoadStudyConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", cfg.Version)
	})
}

func TestNewValidator_CustomRules(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	type sample struct {
		Version string `validate:"semver"`
		Code    string `validate:"featurecode"`
	}
	assert.NoError(t, v.Struct(sample{Version: "0.1.2", Code: "rec12"}))
	assert.Error(t, v.Struct(sample{Version: "1.2", Code: "rec12"}))
	assert.Error(t, v.Struct(sample{Version: "1.0.0", Code: "12rec"}))
}
