// Package taperr defines the typed error surfaced by interactive login flows,
// with stable codes for the undefined, cancelled and invalid-login-state
// outcomes.
package taperr
