// Package job moves history persistence onto a River queue backed by
// PostgreSQL.
//
// [Manager] implements mailer.HistoryStore: Save enqueues the record and a
// worker writes it to the target store with River's retry policy, so a
// store outage delays records instead of dropping them. When a [Pruner] is
// configured a periodic job, scheduled with a five-field cron expression,
// deletes records older than the retention window.
package job
