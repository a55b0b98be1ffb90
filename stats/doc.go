// Package stats exposes hooks for observing a running Packetizer, and a
// default in-memory implementation of them for callers who just want
// aggregate numbers rather than a full perf-stats backend.
package stats
