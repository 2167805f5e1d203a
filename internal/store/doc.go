// Package store provides SQLite-backed history of harness runs.
//
// Each run row holds the scenario name, whether it passed, and the canonical
// JSON of its result. Rows are append-only and ordered by seq, a counter the
// store assigns on insert, never by wall time. Run ids come from a
// RunIDGenerator: UUIDv7 in production and a fixed sequence in tests.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
