// Package session implements the login lifecycle state machine: the atomic
// single-login guard, scope normalisation, presenter interaction, token
// exchange, profile fetch, write-through persistence and the detached
// refresh-on-start routine with its stale-but-valid recovery policy.
package session
