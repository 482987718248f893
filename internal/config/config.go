package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// RedmineConfig holds the remote tracker connection settings.
type RedmineConfig struct {
	URL       string        `mapstructure:"url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	VerifySSL bool          `mapstructure:"verify_ssl"`
}

// DataConfig holds local cache settings.
type DataConfig struct {
	CacheDir string `mapstructure:"cache_dir"`
	// TrailingWindowDays bounds the snapshot rebuild window for
	// incremental fetches without an explicit since date.
	TrailingWindowDays int `mapstructure:"trailing_window_days"`
}

// TicketConfig controls how remote issues map to cached tickets.
type TicketConfig struct {
	// CompletedStatusIDs is the remote status set that marks a ticket
	// done. Redmine's defaults are resolved, closed and rejected.
	CompletedStatusIDs []int `mapstructure:"completed_status_ids"`
	// RecordZeroEstimateAdded emits an added scope event even for new
	// tickets with no (or zero) estimate.
	RecordZeroEstimateAdded bool `mapstructure:"record_zero_estimate_added"`
}

// DateConfig controls span math for the calculator.
type DateConfig struct {
	BusinessDaysOnly bool `mapstructure:"business_days_only"`
	// Holidays lists extra non-working dates as YYYY-MM-DD strings.
	Holidays []string `mapstructure:"holidays"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the full application configuration.
type Config struct {
	Redmine RedmineConfig `mapstructure:"redmine"`
	Data    DataConfig    `mapstructure:"data"`
	Tickets TicketConfig  `mapstructure:"tickets"`
	Date    DateConfig    `mapstructure:"date"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DBPath returns the location of the SQLite cache database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Data.CacheDir, "rdburn.db")
}

// HolidayDates parses the configured holiday strings, skipping
// malformed entries.
func (c *Config) HolidayDates() []time.Time {
	var out []time.Time
	for _, s := range c.Date.Holidays {
		if d, err := time.Parse("2006-01-02", s); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// Load reads configuration from the given file (or the default
// ~/.rdburn/config.yaml when path is empty), applies RDBURN_* env
// overrides, and fills in defaults. A missing config file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("redmine.url", "http://localhost:3000")
	v.SetDefault("redmine.timeout", 30*time.Second)
	v.SetDefault("redmine.verify_ssl", true)
	v.SetDefault("data.cache_dir", defaultCacheDir())
	v.SetDefault("data.trailing_window_days", 7)
	v.SetDefault("tickets.completed_status_ids", []int{3, 5, 6})
	v.SetDefault("tickets.record_zero_estimate_added", false)
	v.SetDefault("date.business_days_only", false)
	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("RDBURN")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".rdburn"))
			v.SetConfigName("config")
			if err := v.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return nil, fmt.Errorf("reading config: %w", err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./cache"
	}
	return filepath.Join(home, ".rdburn", "cache")
}
