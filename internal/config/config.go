package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration. It is built once at
// startup and passed explicitly into each component; nothing in the pipeline
// reads configuration from process-wide state.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// PathsConfig contains the named directories supplied to the pipeline.
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ManualDataDir string `yaml:"manual_data_dir" envconfig:"MANUAL_DATA_DIR" validate:"required"`
	OutputDir     string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PipelineConfig contains the knobs of the spread calculation itself.
type PipelineConfig struct {
	// CutoffDate drops observations on or before this date. The published
	// series starts after 2004-06-22.
	CutoffDate string `yaml:"cutoff_date" envconfig:"CUTOFF_DATE" validate:"required,datetime=2006-01-02"`

	// RatesInPercent marks the implied-repo and OIS inputs as quoted in
	// percent (2.10 rather than 0.0210). The loader normalizes them to
	// decimal fractions.
	RatesInPercent bool `yaml:"rates_in_percent" envconfig:"RATES_IN_PERCENT"`

	// BoundaryPolicy selects what interpolation does outside the curve's
	// tenor range: "clamp" to the nearest endpoint or "fail".
	BoundaryPolicy string `yaml:"boundary_policy" envconfig:"BOUNDARY_POLICY" validate:"oneof=clamp fail"`

	SmootherWindow    int     `yaml:"smoother_window" envconfig:"SMOOTHER_WINDOW" validate:"gte=2"`
	SmootherThreshold float64 `yaml:"smoother_threshold" envconfig:"SMOOTHER_THRESHOLD" validate:"gt=0"`
	MaxForwardFill    int     `yaml:"max_forward_fill" envconfig:"MAX_FORWARD_FILL" validate:"gte=0"`
}

// Default returns the default configuration. The pipeline defaults mirror the
// published methodology: 30-observation window, MAD threshold 10, forward
// fill bounded at 5 periods.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:       "_data",
			ManualDataDir: "data_manual",
			OutputDir:     "_output",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/tsfarb.log",
		},
		Pipeline: PipelineConfig{
			CutoffDate:        "2004-06-22",
			RatesInPercent:    true,
			BoundaryPolicy:    "clamp",
			SmootherWindow:    30,
			SmootherThreshold: 10,
			MaxForwardFill:    5,
		},
	}
}

// Load builds the configuration: code defaults, overlaid by an optional YAML
// file, overlaid by TSF_* environment variables. A .env file in the working
// directory is honored before the environment is read, so runs can be
// configured the same way the reference datasets were produced.
func Load(configFile string) (*Config, error) {
	// Missing .env is fine; only a malformed one is an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	// Environment variables take precedence over the file. The struct tags
	// carry no defaults, so unset variables leave file/code values intact.
	if err := envconfig.Process("TSF", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first config file found in common locations.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks the configuration with the struct validation tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("config validation failed: logging.file_path required for output %q", c.Logging.Output)
	}
	return nil
}

// Cutoff returns the parsed cutoff date. Validate guarantees the format.
func (c *Config) Cutoff() time.Time {
	t, _ := time.Parse("2006-01-02", c.Pipeline.CutoffDate)
	return t
}

// FuturesCSVPath returns the default path of the treasury futures input.
func (c *Config) FuturesCSVPath() string {
	return filepath.Join(c.Paths.DataDir, "treasury_futures.csv")
}

// OISCSVPath returns the default path of the OIS rate input.
func (c *Config) OISCSVPath() string {
	return filepath.Join(c.Paths.DataDir, "ois_rates.csv")
}

// LastTradingDaysPath returns the default path of the manually curated
// last-trading-day workbook.
func (c *Config) LastTradingDaysPath() string {
	return filepath.Join(c.Paths.ManualDataDir, "last_trading_days.xlsx")
}

// SpreadCSVPath returns the path of the wide-format spread series output.
func (c *Config) SpreadCSVPath() string {
	return filepath.Join(c.Paths.OutputDir, "treasury_sf_output.csv")
}

// StatsCSVPath returns the path of the per-bucket summary statistics table.
func (c *Config) StatsCSVPath() string {
	return filepath.Join(c.Paths.OutputDir, "treasury_sf_stats.csv")
}

// ReportXLSXPath returns the path of the Excel analysis workbook.
func (c *Config) ReportXLSXPath() string {
	return filepath.Join(c.Paths.OutputDir, "treasury_sf_report.xlsx")
}

// EnsureOutputDir creates the output directory if it does not exist.
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.Paths.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}
