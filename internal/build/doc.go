// Package build runs a pipeline graph as one build.
//
// Both pipelines, the page builder and the legacy task runner, implement
// Pipeline. Service plans the requested target, executes it with the shared
// taskgraph executor and attaches the logging, metrics and history observers
// for the run. Every execution path (build, watch, tests) goes through
// Service.Run.
package build
