// Package sitedata loads the structured data made available to templates:
// the global data directory, per-template sibling data files and build
// metadata read from the project's git repository.
package sitedata
