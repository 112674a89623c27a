// Package site implements the template and asset builder: it scans a source
// tree, renders HTML and Markdown templates through layouts, compiles Sass,
// copies passthrough files and runs the output transforms.
//
// The work is exposed as a task graph:
//
//	clean ───────┐
//	scan ────────┼─> passthrough
//	             ├─> styles
//	data ────────┴─> pages
//
// Targets "passthrough", "styles" and "pages" run a single stage with its
// predecessors; "build" (and "default") run everything.
package site
