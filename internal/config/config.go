package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	DBPath    string
	LogLevel  string
	LogFile   string
	LogFormat string

	// RetryBaseDelay is the first backoff of the retry executor.
	RetryBaseDelay       time.Duration
	SoonExpiringDays     int
	UpcomingDays         int
	ReminderLeadTime     time.Duration
	NotificationsEnabled bool
	PollInterval         time.Duration

	// MetricsAddr is where the reminder worker serves /metrics; empty
	// disables it.
	MetricsAddr string
}

// fileConfig mirrors Config for the optional TOML file. Durations are
// written as strings such as "500ms" or "24h".
type fileConfig struct {
	DBPath               *string `toml:"db_path"`
	LogLevel             *string `toml:"log_level"`
	LogFile              *string `toml:"log_file"`
	LogFormat            *string `toml:"log_format"`
	RetryBaseDelay       *string `toml:"retry_base_delay"`
	SoonExpiringDays     *int    `toml:"soon_expiring_days"`
	UpcomingDays         *int    `toml:"upcoming_days"`
	ReminderLeadTime     *string `toml:"reminder_lead_time"`
	NotificationsEnabled *bool   `toml:"notifications_enabled"`
	PollInterval         *string `toml:"poll_interval"`
	MetricsAddr          *string `toml:"metrics_addr"`
}

func defaults() *Config {
	return &Config{
		DBPath:               "shelflife.db",
		LogLevel:             "info",
		LogFormat:            "text",
		RetryBaseDelay:       500 * time.Millisecond,
		SoonExpiringDays:     3,
		UpcomingDays:         7,
		ReminderLeadTime:     24 * time.Hour,
		NotificationsEnabled: true,
		PollInterval:         time.Minute,
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// SHELFLIFE_CONFIG if set, then a .env file in the working directory and the
// process environment. Environment variables win.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("SHELFLIFE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.DBPath, f.DBPath)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.LogFile, f.LogFile)
	setString(&c.LogFormat, f.LogFormat)
	setString(&c.MetricsAddr, f.MetricsAddr)
	if f.SoonExpiringDays != nil {
		c.SoonExpiringDays = *f.SoonExpiringDays
	}
	if f.UpcomingDays != nil {
		c.UpcomingDays = *f.UpcomingDays
	}
	if f.NotificationsEnabled != nil {
		c.NotificationsEnabled = *f.NotificationsEnabled
	}
	for _, d := range []struct {
		key string
		val *string
		dst *time.Duration
	}{
		{"retry_base_delay", f.RetryBaseDelay, &c.RetryBaseDelay},
		{"reminder_lead_time", f.ReminderLeadTime, &c.ReminderLeadTime},
		{"poll_interval", f.PollInterval, &c.PollInterval},
	} {
		if d.val == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.val)
		if err != nil {
			return fmt.Errorf("invalid %s in %s: %w", d.key, path, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)

	var err error
	if c.RetryBaseDelay, err = getEnvDuration("RETRY_BASE_DELAY", c.RetryBaseDelay); err != nil {
		return err
	}
	if c.ReminderLeadTime, err = getEnvDuration("REMINDER_LEAD_TIME", c.ReminderLeadTime); err != nil {
		return err
	}
	if c.PollInterval, err = getEnvDuration("REMINDER_POLL_INTERVAL", c.PollInterval); err != nil {
		return err
	}
	if c.SoonExpiringDays, err = getEnvInt("SOON_EXPIRING_DAYS", c.SoonExpiringDays); err != nil {
		return err
	}
	if c.UpcomingDays, err = getEnvInt("UPCOMING_DAYS", c.UpcomingDays); err != nil {
		return err
	}
	if c.NotificationsEnabled, err = getEnvBool("NOTIFICATIONS_ENABLED", c.NotificationsEnabled); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	switch {
	case c.DBPath == "":
		return fmt.Errorf("DB_PATH must not be empty")
	case c.RetryBaseDelay <= 0:
		return fmt.Errorf("RETRY_BASE_DELAY must be positive, got %s", c.RetryBaseDelay)
	case c.PollInterval <= 0:
		return fmt.Errorf("REMINDER_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	case c.ReminderLeadTime < 0:
		return fmt.Errorf("REMINDER_LEAD_TIME must not be negative, got %s", c.ReminderLeadTime)
	case c.SoonExpiringDays < 0 || c.UpcomingDays < 0:
		return fmt.Errorf("alert windows must not be negative")
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}
