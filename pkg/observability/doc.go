/*
Package observability turns editor lifecycle events into Prometheus metrics
and structured log lines.

Metrics.Hooks and LoggingHooks both return domain.LifecycleHooks, which can be
merged and passed to the editor and the persistence bridge.
*/
package observability
