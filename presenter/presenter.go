package presenter

import (
	"context"
	"errors"

	"github.com/tapsdk/taplogin/account"
)

// ErrClosed reports that the user dismissed the authorization surface without
// completing it. Presenters return it to turn the pending login into a
// cancellation.
var ErrClosed = errors.New("authorization surface closed")

// Request carries everything a presenter needs to solicit authorization.
type Request struct {
	ClientID string
	Scopes   []string
}

// RawToken is the authorization result before it is translated into the
// canonical access token.
type RawToken struct {
	KeyID        string
	TokenType    string
	MacKey       string
	MacAlgorithm string
	Scopes       []string
}

// AccessToken converts the raw authorization payload into the canonical token.
func (t *RawToken) AccessToken() *account.AccessToken {
	return &account.AccessToken{
		KeyID:        t.KeyID,
		TokenType:    t.TokenType,
		MacKey:       t.MacKey,
		MacAlgorithm: t.MacAlgorithm,
		Scopes:       t.Scopes,
	}
}

// Result is a completed authorization. Channel identifies the interaction
// surface for tracking purposes only.
type Result struct {
	Token   *RawToken
	Channel string
}

// Presenter is any interaction surface that can solicit user authorization.
// Present blocks for an unbounded, user-controlled duration and resolves with
// exactly one outcome: a Result, ErrClosed on dismissal, or a typed error.
// Cancelling ctx dismisses the surface.
type Presenter interface {
	Present(ctx context.Context, request Request) (*Result, error)
}

// Func adapts a function to the Presenter interface.
type Func func(ctx context.Context, request Request) (*Result, error)

// Present implements Presenter.
func (f Func) Present(ctx context.Context, request Request) (*Result, error) {
	return f(ctx, request)
}
