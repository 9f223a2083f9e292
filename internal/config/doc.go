// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe access to settings for the store, the reminder job, the
// telephony gateway, and telemetry while keeping those details separate from
// business logic.
package config
