// Package redis opens the go-redis client used by the history stream store.
//
// [Open] validates the URL, applies pool settings from [Config] and retries
// the initial ping. [Healthcheck] and [Shutdown] plug the client into the
// readiness probe and the shutdown sequence.
package redis
