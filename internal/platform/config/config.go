package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"

	"screener/internal/screening/fetch"
	"screener/internal/screening/source"
)

// Config holds all configuration for the screening service.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
type Config struct {
	// Server configuration
	Addr            string        `yaml:"addr" env:"SCREENER_ADDR" env-default:":8080"`
	LogLevel        string        `yaml:"log_level" env:"SCREENER_LOG_LEVEL" env-default:"info"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SCREENER_SHUTDOWN_TIMEOUT" env-default:"10s"`

	// Screening configuration
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"SCREENER_QUERY_TIMEOUT" env-default:"10s"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"SCREENER_REFRESH_INTERVAL" env-default:"300s"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" env:"SCREENER_FETCH_TIMEOUT" env-default:"120s"`

	// Sources are screened in the order listed. Built-in defaults apply
	// when none are configured.
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig describes where a list is downloaded from and how its columns
// map onto screening records. Exactly one of URL or FeedURL is set.
type SourceConfig struct {
	Name string `yaml:"name"`

	URL       string `yaml:"url"`
	FeedURL   string `yaml:"feed_url"`
	FeedTitle string `yaml:"feed_title"`

	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
	HasHeader bool   `yaml:"has_header"`

	Grouped          bool     `yaml:"grouped"`
	EntityIDColumn   string   `yaml:"entity_id_column"`
	NameColumn       string   `yaml:"name_column"`
	CountryColumns   []string `yaml:"country_columns"`
	CountryPattern   string   `yaml:"country_pattern"`
	BirthDateColumn  string   `yaml:"birth_date_column"`
	BirthDateLayout  string   `yaml:"birth_date_layout"`
	BirthDatePattern string   `yaml:"birth_date_pattern"`
	NullValues       []string `yaml:"null_values"`
	Passthrough      []string `yaml:"passthrough"`
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error: environment variables and built-in
// defaults are used instead.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks timeouts and every source definition. Non-positive
// durations are rejected rather than replaced by defaults.
func (c *Config) Validate() error {
	if c.QueryTimeout <= 0 || c.RefreshInterval <= 0 || c.FetchTimeout <= 0 {
		return errors.New("query_timeout, refresh_interval and fetch_timeout must be positive")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("source %s: defined twice", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// Validate checks that the source can be downloaded and mapped.
func (s SourceConfig) Validate() error {
	if s.Name == "" {
		return errors.New("source name is required")
	}
	if (s.URL == "") == (s.FeedURL == "") {
		return fmt.Errorf("source %s: exactly one of url and feed_url is required", s.Name)
	}
	if s.FeedURL != "" && s.FeedTitle == "" {
		return fmt.Errorf("source %s: feed_title is required with feed_url", s.Name)
	}
	if s.Delimiter != "" && utf8.RuneCountInString(s.Delimiter) != 1 {
		return fmt.Errorf("source %s: delimiter must be a single character", s.Name)
	}
	if err := s.Format().Validate(); err != nil {
		return fmt.Errorf("source %s: %w", s.Name, err)
	}
	if err := s.Mapping().Validate(); err != nil {
		return fmt.Errorf("source %s: %w", s.Name, err)
	}
	return nil
}

// Format returns how the downloaded file is decoded and split.
func (s SourceConfig) Format() fetch.Format {
	f := fetch.Format{Encoding: s.Encoding, HasHeader: s.HasHeader}
	if r, _ := utf8.DecodeRuneInString(s.Delimiter); r != utf8.RuneError {
		f.Delimiter = r
	}
	return f
}

// Mapping returns the column mapping of the source.
func (s SourceConfig) Mapping() source.Mapping {
	return source.Mapping{
		Grouped:          s.Grouped,
		EntityIDColumn:   s.EntityIDColumn,
		NameColumn:       s.NameColumn,
		CountryColumns:   s.CountryColumns,
		CountryPattern:   s.CountryPattern,
		BirthDateColumn:  s.BirthDateColumn,
		BirthDateLayout:  s.BirthDateLayout,
		BirthDatePattern: s.BirthDatePattern,
		NullValues:       s.NullValues,
		Passthrough:      s.Passthrough,
	}
}

// Resolver returns how the download URL is found for each cycle.
func (s SourceConfig) Resolver(client *http.Client) fetch.URLResolver {
	if s.FeedURL != "" {
		return fetch.NewFeedResolver(client, s.FeedURL, s.FeedTitle)
	}
	return fetch.StaticURL(s.URL)
}

// DefaultSources returns the US OFAC SDN list and the EU consolidated
// financial sanctions list.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:             "us_sdn",
			URL:              "https://www.treasury.gov/ofac/downloads/sdn.csv",
			Encoding:         "latin1",
			EntityIDColumn:   "0",
			NameColumn:       "1",
			CountryColumns:   []string{"11"},
			CountryPattern:   `nationality ([A-Za-z ]+)`,
			BirthDateColumn:  "11",
			BirthDatePattern: `DOB (\d{2} [A-Z][a-z]{2} \d{4})`,
			BirthDateLayout:  "02 Jan 2006",
			NullValues:       []string{"-0-"},
			Passthrough:      []string{"2", "3"},
		},
		{
			Name:            "eu",
			FeedURL:         "https://webgate.ec.europa.eu/fsd/fsf/public/rss",
			FeedTitle:       "CSV - v1.0",
			Delimiter:       ";",
			Encoding:        "utf-8-sig",
			HasHeader:       true,
			Grouped:         true,
			EntityIDColumn:  "Entity_logical_id",
			NameColumn:      "Naal_wholename",
			CountryColumns:  []string{"Addr_country", "Birt_country"},
			BirthDateColumn: "Birt_date",
			BirthDateLayout: "2006-01-02",
			Passthrough:     []string{"Entity_remark"},
		},
	}
}
