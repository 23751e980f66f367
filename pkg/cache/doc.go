// Package cache memoizes render hook results.
//
// [Hook] wraps a mailer.RenderHook and stores successful results in a
// [Store] keyed by a digest of the request, so repeated sends of the same
// template and content skip the hook round trip. Concurrent identical
// misses are collapsed into one call. Failures and absent templates are
// never cached.
//
// Two stores ship with the package: [Memory], a bounded LRU with TTLs, and
// [Redis], for sharing results across replicas.
package cache
