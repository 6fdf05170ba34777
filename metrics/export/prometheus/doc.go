// Package prometheus publishes goBoard metrics through prometheus/client_golang.
//
// [Exporter] is a [prometheus.Collector] that turns each scrape into a fresh
// [goBoard.Engine.MetricsSnapshot]. Counter names are goboard_*_total; the single
// histogram is goboard_api_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry. [Exporter.Handler] serves a
//     private registry; callers may also Register the Exporter themselves.
//   - Mutate engine state.
package prometheus
