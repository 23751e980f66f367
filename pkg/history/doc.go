// Package history persists mailer history records.
//
// [Postgres] writes one row per send to a jsonb-backed table and ships the
// goose migrations that create it in [Migrations]. [Redis] appends records
// to a capped stream for consumers that tail recent activity. [Multi] fans
// a record out to several stores and [Instrumented] counts saves and
// failures with Prometheus.
//
// Every store implements [mailer.HistoryStore].
package history
