// Package tracing wraps OpenTelemetry so that dispatch and worker code can
// record spans without importing the SDK directly. Until Init is called the
// global no-op provider is used.
package tracing
