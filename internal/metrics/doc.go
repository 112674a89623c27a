// Package metrics records build and task metrics.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so no call site needs a nil check. The CLI swaps in a
// PrometheusRecorder when a metrics file is requested and writes the
// registry in the node exporter textfile format after the build.
package metrics
