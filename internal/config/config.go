package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Reminder  ReminderConfig  `mapstructure:"reminder" validate:"required"`
	Telephony TelephonyConfig `mapstructure:"telephony" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains the admin HTTP server and logging settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig selects the store backend and its connection string.
// For sqlite the URL is a file path or ":memory:".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains the secret used to validate bearer tokens on the
// admin endpoints.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// ReminderConfig controls the overdue-task reminder job.
type ReminderConfig struct {
	// Schedule is a standard 5-field cron expression or a descriptor such as @daily.
	Schedule string `mapstructure:"schedule" validate:"required"`

	// Timezone is an IANA name used both for the schedule and for calendar-day
	// urgency classification.
	Timezone string `mapstructure:"timezone" validate:"required"`

	// Concurrency bounds parallel gateway calls within one run. 1 is sequential.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=32"`

	// RunTimeout caps one run. Zero means no limit.
	RunTimeout time.Duration `mapstructure:"run_timeout" validate:"gte=0"`

	// RenotifyCooldown suppresses another call for a task successfully
	// notified within this window. Zero disables suppression.
	RenotifyCooldown time.Duration `mapstructure:"renotify_cooldown" validate:"gte=0"`
}

// TelephonyConfig contains the outbound voice call provider settings.
type TelephonyConfig struct {
	AccountSID  string        `mapstructure:"account_sid" validate:"required"`
	AuthToken   string        `mapstructure:"auth_token" validate:"required"`
	FromNumber  string        `mapstructure:"from_number" validate:"required,e164"`
	CallbackURL string        `mapstructure:"callback_url" validate:"omitempty,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// RedisConfig configures the notification ledger. An empty Addr selects the
// in-memory ledger.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// TelemetryConfig configures optional metric export and attempt recording.
type TelemetryConfig struct {
	// OTLPEndpoint is a host:port for OTLP/HTTP metric export. Empty disables export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`

	InfluxDBURL    string `mapstructure:"influxdb_url" validate:"omitempty,url"`
	InfluxDBToken  string `mapstructure:"influxdb_token"`
	InfluxDBOrg    string `mapstructure:"influxdb_org"`
	InfluxDBBucket string `mapstructure:"influxdb_bucket"`
}
