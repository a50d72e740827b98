package service

import (
	"context"
	"fmt"

	"github.com/tapsdk/taplogin/account"
)

// Service is the network contract the session orchestrator consumes.
type Service interface {
	// Profile fetches the profile the token grants access to.
	Profile(ctx context.Context, token *account.AccessToken) (*account.Profile, error)
	// RefreshToken requests a fresh token for the given key id. A nil token
	// with a nil error means the server had nothing newer to offer.
	RefreshToken(ctx context.Context, keyID string) (*account.AccessToken, error)
}

// Error is a structured server fault. Negative codes mark the session as
// irrecoverable and force a logout during the startup refresh.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error_description"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("service error %d: %s", e.Code, e.Message)
}
