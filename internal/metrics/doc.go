// Package metrics provides the observability hooks for twbuilder task runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks:
//
//	exec := taskgraph.NewExecutor(taskgraph.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics are enabled (watch mode with metrics.enabled in the config), the
// CLI swaps in a PrometheusRecorder and serves HTTPHandler on the configured address.
package metrics
