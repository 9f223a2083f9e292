package testutil

import (
	"log/slog"
	"os"

	"github.com/phrazzld/duecall/internal/redact"
)

// Environment variables read by tests.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	// EnvTestDatabaseURL is the preferred name; EnvDatabaseURL is a fallback.
	EnvTestDatabaseURL = "DUECALL_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// IsCI reports whether the tests run under a CI provider.
func IsCI() bool {
	for _, name := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the first non-empty variable in envVars, or
// defaultValue. Using a fallback name logs a warning with the value redacted.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			if i > 0 && logger != nil {
				logger.Warn("using fallback environment variable",
					"used_var", envVar,
					"preferred_var", envVars[0],
					"value", redact.String(val))
			}
			return val
		}
	}
	return defaultValue
}

// TestDatabaseURL returns the postgres URL for integration tests, or "" when
// none is configured.
func TestDatabaseURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvTestDatabaseURL, EnvDatabaseURL}, "", logger)
}
