// Package db opens the PostgreSQL pool backing history storage.
//
// [Connect] retries transient startup failures, [Migrate] applies goose
// migrations from any fs.FS and [Healthcheck] adapts the pool to readiness
// probes. Errors are joined with the sentinels in errors.go.
package db
