// Package store holds the current logged-in account and mirrors it to a
// pluggable durable Storage backend: file (via afs), operating system keyring
// or in-memory. It owns the one-time migration from the legacy two-record
// layout to the unified account record.
package store
