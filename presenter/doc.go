// Package presenter declares the interaction surface that solicits user
// authorization for a login, and ships a headless device-code implementation
// built on the OAuth2 device authorization grant. A presenter resolves every
// attempt with exactly one outcome: token, typed error or ErrClosed.
package presenter
