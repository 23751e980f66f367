package job

import "errors"

var (
	// ErrPoolRequired is returned when no database pool is given.
	ErrPoolRequired = errors.New("job: pool is required")
	// ErrStoreRequired is returned when no target store is given.
	ErrStoreRequired = errors.New("job: store is required")
	// ErrInvalidSchedule is returned for unparsable cron expressions.
	ErrInvalidSchedule = errors.New("job: invalid schedule")
	// ErrInvalidPayload is returned when a queued record cannot be decoded.
	ErrInvalidPayload = errors.New("job: invalid payload")
	// ErrAlreadyStarted is returned by Start on a running manager.
	ErrAlreadyStarted = errors.New("job: already started")
	// ErrNotStarted is returned by Stop on a stopped manager.
	ErrNotStarted = errors.New("job: not started")
	// ErrHealthcheckFailed is returned by the readiness probe.
	ErrHealthcheckFailed = errors.New("job: healthcheck failed")
)
