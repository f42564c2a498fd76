// Package metrics records pre-build outcomes and timings.
//
// Components receive a Recorder and default to NoopRecorder, so no nil
// checks are needed at call sites:
//
//	orch := prebuild.New(runner, prebuild.WithRecorder(metrics.NoopRecorder{}))
//
// PrometheusRecorder registers its collectors on a private registry. prebuild
// is a short-lived process, so instead of serving /metrics the registry is
// written to a node_exporter textfile after each run (WriteTextfile).
package metrics
