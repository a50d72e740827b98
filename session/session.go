package session

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tapsdk/taplogin/account"
	"github.com/tapsdk/taplogin/compliance"
	"github.com/tapsdk/taplogin/presenter"
	"github.com/tapsdk/taplogin/region"
	"github.com/tapsdk/taplogin/service"
	"github.com/tapsdk/taplogin/store"
	"github.com/tapsdk/taplogin/taperr"
	"github.com/tapsdk/taplogin/tracker"
)

// Session drives the login lifecycle: at most one interactive login at a
// time, scope normalisation, presenter interaction, token exchange, profile
// fetch, write-through persistence and the detached startup refresh.
type Session struct {
	clientID   string
	resolver   *region.Resolver
	store      *store.Store
	service    service.Service
	presenter  presenter.Presenter
	compliance compliance.Provider
	tracker    *tracker.Tracker
	logger     *zap.Logger

	// loggingIn is the concurrency guard; the check-and-acquire must be a
	// single atomic step so two near-simultaneous Login calls cannot both
	// pass it.
	loggingIn atomic.Bool
}

// Option customises a Session.
type Option func(*Session)

// WithCompliance injects the optional compliance capability.
func WithCompliance(provider compliance.Provider) Option {
	return func(s *Session) {
		s.compliance = provider
	}
}

// WithTracker sets the tracking dispatcher. A nil tracker is valid and drops
// every event.
func WithTracker(t *tracker.Tracker) Option {
	return func(s *Session) {
		s.tracker = t
	}
}

// WithLogger sets the logger for the swallow paths of the startup refresh.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a session orchestrator.
func New(clientID string, resolver *region.Resolver, accounts *store.Store, svc service.Service, pres presenter.Presenter, options ...Option) *Session {
	ret := &Session{
		clientID:  clientID,
		resolver:  resolver,
		store:     accounts,
		service:   svc,
		presenter: pres,
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Login runs an interactive login: it presents the normalised scopes, trades
// the authorization for a canonical token, fetches the profile, persists the
// resulting account and returns it. While another Login is pending it fails
// immediately with taperr.CodeInvalidLoginState and performs no side effect.
func (s *Session) Login(ctx context.Context, scopes ...string) (*account.Account, error) {
	if !s.loggingIn.CompareAndSwap(false, true) {
		return nil, taperr.InvalidLoginState()
	}
	sessionID := uuid.NewString()
	s.tracker.Start(tracker.ActionLogin, sessionID)

	result, err := s.presenter.Present(ctx, presenter.Request{
		ClientID: s.clientID,
		Scopes:   s.normalizeScopes(scopes),
	})
	if err != nil {
		if errors.Is(err, presenter.ErrClosed) {
			s.tracker.Cancel(tracker.ActionLogin, sessionID)
			s.loggingIn.Store(false)
			return nil, taperr.LoginCancel()
		}
		s.tracker.Failure(tracker.ActionLogin, sessionID, "", taperr.Code(err), err.Error())
		s.loggingIn.Store(false)
		return nil, err
	}
	if result == nil || result.Token == nil {
		s.tracker.Failure(tracker.ActionLogin, sessionID, "", taperr.CodeUndefined, "missing authorization payload")
		s.loggingIn.Store(false)
		return nil, taperr.Undefined()
	}

	token := result.Token.AccessToken()
	profile, err := s.service.Profile(ctx, token)
	if err != nil || profile == nil {
		s.tracker.Failure(tracker.ActionLogin, sessionID, result.Channel, taperr.CodeUndefined, "profile fetch failed")
		s.loggingIn.Store(false)
		return nil, taperr.Undefined()
	}

	current := account.New(token, profile)
	s.store.SetCurrent(ctx, current)
	s.tracker.Success(tracker.ActionLogin, sessionID, result.Channel)
	s.loggingIn.Store(false)
	return current, nil
}

// Authorize runs the lightweight token-only flow: deduplicated scopes, no
// profile fetch, no persistence and, deliberately, no concurrency guard — it
// may run alongside Login or itself.
func (s *Session) Authorize(ctx context.Context, scopes ...string) (*account.AccessToken, error) {
	result, err := s.presenter.Present(ctx, presenter.Request{
		ClientID: s.clientID,
		Scopes:   dedupeScopes(scopes),
	})
	if err != nil {
		if errors.Is(err, presenter.ErrClosed) {
			return nil, taperr.LoginCancel()
		}
		return nil, err
	}
	if result == nil || result.Token == nil {
		return nil, taperr.Undefined()
	}
	return result.Token.AccessToken(), nil
}

// Logout drops the cached account. Synchronous, no network call.
func (s *Session) Logout(ctx context.Context) {
	s.store.Clear(ctx)
}

// CurrentAccount returns the cached account, or nil. It never blocks.
func (s *Session) CurrentAccount() *account.Account {
	return s.store.Current()
}

// Refresh renews the cached token once, typically detached at startup. A
// structured server fault with a negative code forces a logout; every other
// failure keeps the stale-but-valid account untouched.
func (s *Session) Refresh(ctx context.Context) {
	current := s.store.Current()
	if current == nil || current.AccessToken == nil {
		return
	}
	token, err := s.service.RefreshToken(ctx, current.AccessToken.KeyID)
	if err != nil {
		var fault *service.Error
		if errors.As(err, &fault) && fault.Code < 0 {
			s.logger.Info("token refresh rejected, clearing cached account",
				zap.Int("code", fault.Code))
			s.Logout(ctx)
			return
		}
		s.logger.Warn("token refresh failed, keeping cached account", zap.Error(err))
		return
	}
	if token == nil {
		return
	}
	profile, err := s.service.Profile(ctx, token)
	if err != nil || profile == nil {
		s.logger.Warn("profile fetch after refresh failed, keeping cached account", zap.Error(err))
		return
	}
	s.store.SetCurrent(ctx, account.New(token, profile))
}

// normalizeScopes guarantees the public profile scope is present exactly once
// and appends the compliance scope when the capability offers one.
func (s *Session) normalizeScopes(scopes []string) []string {
	ret := dedupeScopes(scopes)
	if !containsScope(ret, account.ScopePublicProfile) {
		ret = append(ret, account.ScopePublicProfile)
	}
	if s.compliance != nil {
		if scope, ok := s.compliance.AgeRangeScope(s.resolver.Region() == region.CN); ok && scope != "" && !containsScope(ret, scope) {
			ret = append(ret, scope)
		}
	}
	return ret
}

func dedupeScopes(scopes []string) []string {
	seen := map[string]bool{}
	ret := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if scope == "" || seen[scope] {
			continue
		}
		seen[scope] = true
		ret = append(ret, scope)
	}
	return ret
}

func containsScope(scopes []string, scope string) bool {
	for _, candidate := range scopes {
		if candidate == scope {
			return true
		}
	}
	return false
}
