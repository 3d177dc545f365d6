// Package observability provides structured logging for the Q&A backend.
//
// Logging is zap-based and configured from the Observability section of the
// application config (level plus json/console encoding). Request IDs are
// attached as regular fields by the callers that own them.
package observability
