// Package header defines the kind and versioning envelope shared by all
// documents the tool emits: audit sessions, summaries, health reports, and
// drift reports.
package header
