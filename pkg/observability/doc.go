/*
Package observability turns pipeline lifecycle events into logs and Prometheus
metrics, and builds a span exporter for stage traces.

Both hook adapters return domain.LifecycleHooks, so they compose with Chain:

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.LoggingHooks(logger).Chain(metrics.Hooks())

NewTracerProvider writes spans as JSON; pass it to protflow.WithTracerProvider.
*/
package observability
