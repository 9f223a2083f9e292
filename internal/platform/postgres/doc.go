// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package.
// It handles query execution, transaction boundaries, and mapping between
// domain entities and database records. Connections are opened by the caller
// through the pgx stdlib driver.
package postgres
