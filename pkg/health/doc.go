// Package health serves liveness and readiness probes.
//
// [LivenessHandler] always answers OK. [ReadinessHandler] runs the
// configured [Checks] concurrently and answers 503 when any of them fails.
// Plain text is the default; JSON is returned for Accept: application/json
// or ?format=json.
package health
