// Package redact provides utilities for redacting sensitive information from strings
// before they are logged or returned in error responses. Store and gateway errors
// can carry connection strings, provider credentials and the phone numbers being
// called; none of these should reach a log line verbatim.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedPhonePlaceholder      = "[REDACTED_PHONE]"
)

// Precompiled regex patterns
var (
	// Stack trace fragments
	stackTraceRegex = regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`)

	// Connection strings with embedded credentials
	connURLRegex = regexp.MustCompile(
		`(?i)(postgres|postgresql|redis|rediss|mysql|mongodb|db|database|connection)://[^@\s]+@`,
	)

	// Credentials and tokens
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)
	apiKeyRegex   = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	// Telephony provider account and API key SIDs
	accountSIDRegex = regexp.MustCompile(`\b(?:AC|SK)[0-9a-fA-F]{32}\b`)
	// JWT token pattern - matches the standard three-part base64url-encoded JWT token format
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// E.164 phone numbers
	phoneRegex = regexp.MustCompile(`\+\d{8,15}\b`)

	// Email addresses
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// File paths
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)
	winPathRegex  = regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`)

	// Hostnames with an optional port
	hostPortRegex = regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
	)

	// rules are applied in order; earlier rules see the unmodified text.
	rules = []struct {
		pattern     *regexp.Regexp
		placeholder string
	}{
		{stackTraceRegex, "[STACK_TRACE_REDACTED]"},
		{connURLRegex, RedactedCredentialPlaceholder},
		{passwordRegex, RedactedCredentialPlaceholder},
		{apiKeyRegex, RedactedKeyPlaceholder},
		{accountSIDRegex, "[REDACTED_SID]"},
		{jwtTokenRegex, "[REDACTED_JWT]"},
		{phoneRegex, RedactedPhonePlaceholder},
		{emailRegex, "[REDACTED_EMAIL]"},
		{unixPathRegex, RedactedPathPlaceholder},
		{winPathRegex, RedactedPathPlaceholder},
		{hostPortRegex, "[REDACTED_HOST]"},
	}
)

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, rule := range rules {
		result = rule.pattern.ReplaceAllString(result, rule.placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

// Phone masks a phone number for logs, keeping only the last four digits.
func Phone(number string) string {
	if len(number) <= 4 {
		return RedactedPhonePlaceholder
	}
	return "***" + number[len(number)-4:]
}
