// Package observability keeps a rotating JSON Lines history of recorded log
// entries and derives level and timing statistics from it on demand.
package observability
