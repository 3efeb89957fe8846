package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Environment variables that override the YAML file.
const (
	EnvSource   = "LEDGERVIEW_SOURCE"
	EnvAPIURL   = "LEDGERVIEW_API_URL"
	EnvAPIToken = "LEDGERVIEW_API_TOKEN"
	EnvDSN      = "LEDGERVIEW_DSN"
	EnvLogMode  = "LEDGERVIEW_LOG_MODE"
)

// Config represents the top-level ledgerview.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Fiscal   FiscalConfig   `yaml:"fiscal"`
	Source   SourceConfig   `yaml:"source"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Print    PrintConfig    `yaml:"print"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Git      GitConfig      `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name     string `yaml:"name"`
	BranchNo string `yaml:"branch_no"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// SourceConfig selects where ledger data comes from.
type SourceConfig struct {
	Kind     string        `yaml:"kind"` // http, file or postgres
	APIURL   string        `yaml:"api_url,omitempty"`
	APIToken string        `yaml:"api_token,omitempty"`
	DataDir  string        `yaml:"data_dir,omitempty"`
	DSN      string        `yaml:"dsn,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LedgerConfig controls fetching and on-screen pagination.
type LedgerConfig struct {
	PageSize      int    `yaml:"page_size"`
	FetchPageSize int    `yaml:"fetch_page_size"`
	MaxPages      int    `yaml:"max_pages"`
	AccountLimit  int    `yaml:"account_limit"`
	Preferences   string `yaml:"preferences_file"`
}

// PrintConfig controls the fixed-layout printable document.
type PrintConfig struct {
	Title        string `yaml:"title"`
	LinesPerPage int    `yaml:"lines_per_page"`
	LeftMargin   int    `yaml:"left_margin"`
}

// ServerConfig controls the read-only HTTP service.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	SessionIdle time.Duration `yaml:"session_idle"`
}

// LogConfig selects the logger mode: "debug" for console output, anything
// else for JSON.
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// GitConfig controls git integration for the file source.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a ledgerview.yaml file from disk. Fields missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:     businessName,
			BranchNo: "1",
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Source: SourceConfig{
			Kind:    SourceFile,
			DataDir: ".",
			Timeout: 15 * time.Second,
		},
		Ledger: LedgerConfig{
			PageSize:      20,
			FetchPageSize: 500,
			MaxPages:      200,
			AccountLimit:  1000,
			Preferences:   ".ledgerview-prefs.yaml",
		},
		Print: PrintConfig{
			Title:        "General Ledger",
			LinesPerPage: 60,
			LeftMargin:   2,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			SessionIdle: 30 * time.Minute,
		},
		Log: LogConfig{
			Mode: "production",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Ledgerview",
			AuthorEmail: "ledgerview@localhost",
		},
	}
}

// ApplyEnv loads envFile (if present) into the process environment and
// applies LEDGERVIEW_* overrides.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if v := os.Getenv(EnvSource); v != "" {
		c.Source.Kind = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.Source.APIURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		c.Source.APIToken = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Source.DSN = v
	}
	if v := os.Getenv(EnvLogMode); v != "" {
		c.Log.Mode = v
	}
	return c.Validate()
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if _, _, err := c.Fiscal.monthDay(); err != nil {
		return err
	}
	switch c.Source.Kind {
	case SourceHTTP:
		if c.Source.APIURL == "" {
			return fmt.Errorf("source.api_url is required for the http source")
		}
	case SourceFile:
		if c.Source.DataDir == "" {
			return fmt.Errorf("source.data_dir is required for the file source")
		}
	case SourcePostgres:
		if c.Source.DSN == "" {
			return fmt.Errorf("source.dsn is required for the postgres source")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	if c.Ledger.PageSize < 1 || c.Ledger.FetchPageSize < 1 {
		return fmt.Errorf("ledger page sizes must be >= 1")
	}
	return nil
}

// Start returns the first day of the given fiscal year.
func (f FiscalConfig) Start(year int) time.Time {
	month, day, err := f.monthDay()
	if err != nil {
		month, day = 1, 1
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// YearOf returns the fiscal year containing t. A fiscal year is labelled by
// the calendar year it starts in. Only t's calendar date in its own
// location counts, not the instant.
func (f FiscalConfig) YearOf(t time.Time) int {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	year := day.Year()
	if day.Before(f.Start(year)) {
		return year - 1
	}
	return year
}

func (f FiscalConfig) monthDay() (int, int, error) {
	parts := strings.SplitN(f.YearStart, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid fiscal.year_start %q: want MM-DD", f.YearStart)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month in fiscal.year_start %q", f.YearStart)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 28 {
		return 0, 0, fmt.Errorf("invalid day in fiscal.year_start %q: want 01-28", f.YearStart)
	}
	return month, day, nil
}
