// Package api exposes the admin HTTP surface: a health check and an
// authenticated endpoint that triggers a reminder run on demand. It
// translates HTTP concerns to dispatcher operations and maps their errors to
// status codes without leaking internal details.
package api
