// Package logger builds the service's slog loggers.
//
// Records are JSON on stdout by default. A [LogHandlerDecorator] adds
// request-scoped attributes through [ContextExtractor] functions on every
// call: the chi request id and the message id and template of the send in
// progress. [NewWithSentry] additionally ships warnings and errors to Sentry
// and degrades to stdout only when no DSN is set.
package logger
