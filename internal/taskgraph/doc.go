// Package taskgraph defines named asynchronous tasks with declared
// predecessors and executes them as a directed acyclic graph.
//
// Both build pipelines are expressed as graphs: a Graph is declared once at
// configuration time, validated into an immutable Plan, and handed to an
// Executor which runs every ready node concurrently, stops dispatching on the
// first failure and marks the nodes that never started as skipped.
package taskgraph
