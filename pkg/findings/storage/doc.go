// Package storage persists completed audit runs.
//
// Two backends implement the Store interface: an in-memory store for
// tests and ephemeral use, and a SQLite store for single-instance
// deployments that need durability across restarts.
package storage
