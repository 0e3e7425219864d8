package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screener/internal/screening/fetch"
)

const sampleYAML = `
addr: ":9090"
log_level: debug
refresh_interval: 60s
sources:
  - name: local
    url: http://localhost:8000/list.csv
    delimiter: ";"
    has_header: true
    name_column: full_name
    country_columns: [country]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 120*time.Second, cfg.FetchTimeout)
	require.Len(t, cfg.Sources, 1)

	src := cfg.Sources[0]
	assert.Equal(t, fetch.Format{Delimiter: ';', HasHeader: true}, src.Format())
	assert.Equal(t, "full_name", src.Mapping().NameColumn)
	assert.Equal(t, []string{"country"}, src.Mapping().CountryColumns)
	assert.Equal(t, fetch.StaticURL("http://localhost:8000/list.csv"), src.Resolver(nil))
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("SCREENER_ADDR", ":7070")
	t.Setenv("SCREENER_QUERY_TIMEOUT", "3s")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 300*time.Second, cfg.RefreshInterval)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "us_sdn", cfg.Sources[0].Name)
	assert.Equal(t, "eu", cfg.Sources[1].Name)
	assert.IsType(t, &fetch.FeedResolver{}, cfg.Sources[1].Resolver(nil))
}

func TestDefaultSources_Valid(t *testing.T) {
	for _, s := range DefaultSources() {
		assert.NoError(t, s.Validate(), s.Name)
	}
}

func TestSourceConfig_Validate(t *testing.T) {
	valid := SourceConfig{Name: "x", URL: "http://example.test", NameColumn: "name"}

	tests := []struct {
		name    string
		mutate  func(*SourceConfig)
		wantErr string
	}{
		{"valid", func(*SourceConfig) {}, ""},
		{"missing name", func(s *SourceConfig) { s.Name = "" }, "source name is required"},
		{"no location", func(s *SourceConfig) { s.URL = "" }, "exactly one of url and feed_url"},
		{"both locations", func(s *SourceConfig) { s.FeedURL = "http://example.test/rss"; s.FeedTitle = "CSV" }, "exactly one of url and feed_url"},
		{"feed without title", func(s *SourceConfig) { s.URL = ""; s.FeedURL = "http://example.test/rss" }, "feed_title is required"},
		{"long delimiter", func(s *SourceConfig) { s.Delimiter = ";;" }, "single character"},
		{"unknown encoding", func(s *SourceConfig) { s.Encoding = "ebcdic" }, "unsupported encoding"},
		{"invalid mapping", func(s *SourceConfig) { s.NameColumn = "" }, "name column is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateRejectsDuplicateSources(t *testing.T) {
	cfg := &Config{
		QueryTimeout:    time.Second,
		RefreshInterval: time.Second,
		FetchTimeout:    time.Second,
		Sources:         []SourceConfig{DefaultSources()[0], DefaultSources()[0]},
	}
	assert.ErrorContains(t, cfg.Validate(), "defined twice")
}

func TestLoad_RejectsNonPositiveTimeouts(t *testing.T) {
	for _, env := range []string{"SCREENER_QUERY_TIMEOUT", "SCREENER_REFRESH_INTERVAL", "SCREENER_FETCH_TIMEOUT"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "0s")

			_, err := Load(writeConfig(t, sampleYAML))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be positive")
		})
	}
}
