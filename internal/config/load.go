package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. DUECALL_SERVER_PORT.
const EnvPrefix = "DUECALL"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take precedence
// over the file. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path. An empty path searches
// the working directory for config.yaml; a missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags plus the constraints tags cannot express:
// the timezone must load and the schedule must parse.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Reminder.Timezone); err != nil {
		return fmt.Errorf("config validation failed: reminder.timezone %q: %w", cfg.Reminder.Timezone, err)
	}

	if _, err := cron.ParseStandard(cfg.Reminder.Schedule); err != nil {
		return fmt.Errorf("config validation failed: reminder.schedule %q: %w", cfg.Reminder.Schedule, err)
	}

	return nil
}

// Location returns the loaded reminder timezone. Call only on a validated config.
func (c ReminderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "postgres")

	v.SetDefault("reminder.schedule", "0 0 * * *")
	v.SetDefault("reminder.timezone", "UTC")
	v.SetDefault("reminder.concurrency", 1)
	v.SetDefault("reminder.run_timeout", time.Duration(0))
	v.SetDefault("reminder.renotify_cooldown", 12*time.Hour)

	v.SetDefault("telephony.timeout", 15*time.Second)

	v.SetDefault("redis.db", 0)

	v.SetDefault("telemetry.influxdb_bucket", "reminder_attempts")
}

// bindEnvs registers keys without defaults so AutomaticEnv picks them up
// during Unmarshal.
func bindEnvs(v *viper.Viper) {
	keys := []string{
		"database.url",
		"auth.jwt_secret",
		"telephony.account_sid",
		"telephony.auth_token",
		"telephony.from_number",
		"telephony.callback_url",
		"redis.addr",
		"redis.password",
		"telemetry.otlp_endpoint",
		"telemetry.otlp_insecure",
		"telemetry.influxdb_url",
		"telemetry.influxdb_token",
		"telemetry.influxdb_org",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
