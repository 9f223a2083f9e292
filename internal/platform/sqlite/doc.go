// Package sqlite implements the store interfaces on an embedded SQLite
// database. It backs local runs and the store-level tests; timestamps are
// stored as unix milliseconds in UTC.
package sqlite
