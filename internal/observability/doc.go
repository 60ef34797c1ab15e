// Package observability provides structured logging and Prometheus metrics
// for the chat service.
//
// Loggers are plain *zap.Logger values passed through constructors. Metrics
// are recorded through the Metrics interface so services stay testable
// without a registry.
package observability
