// Package store defines the persistence contracts consumed by the reminder
// job: listing tasks by filter and order, looking up users, and updating
// tasks. Implementations live under internal/platform.
package store
