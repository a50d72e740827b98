package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapsdk/taplogin/account"
	"github.com/tapsdk/taplogin/presenter"
	"github.com/tapsdk/taplogin/region"
	"github.com/tapsdk/taplogin/service"
	"github.com/tapsdk/taplogin/store"
	"github.com/tapsdk/taplogin/taperr"
	"github.com/tapsdk/taplogin/tracker"
)

type fakePresenter struct {
	mu     sync.Mutex
	calls  int
	scopes []string
	block  chan struct{}
	result *presenter.Result
	err    error
}

func (f *fakePresenter) Present(ctx context.Context, request presenter.Request) (*presenter.Result, error) {
	f.mu.Lock()
	f.calls++
	f.scopes = request.Scopes
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, presenter.ErrClosed
		}
	}
	return f.result, f.err
}

func (f *fakePresenter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakePresenter) requestedScopes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scopes
}

type fakeService struct {
	profile    *account.Profile
	profileErr error
	token      *account.AccessToken
	tokenErr   error
}

func (f *fakeService) Profile(context.Context, *account.AccessToken) (*account.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeService) RefreshToken(context.Context, string) (*account.AccessToken, error) {
	return f.token, f.tokenErr
}

type recordingSink struct {
	mu     sync.Mutex
	events []tracker.Event
}

func (r *recordingSink) Emit(_ context.Context, event tracker.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) phases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ret []string
	for _, event := range r.events {
		ret = append(ret, event.Phase)
	}
	return ret
}

type staticCompliance struct {
	scope string
}

func (s staticCompliance) AgeRangeScope(bool) (string, bool) {
	return s.scope, s.scope != ""
}

func authResult() *presenter.Result {
	return &presenter.Result{
		Token: &presenter.RawToken{
			KeyID:        "kid-1",
			TokenType:    "mac",
			MacKey:       "secret",
			MacAlgorithm: "hmac-sha-1",
			Scopes:       []string{account.ScopePublicProfile},
		},
		Channel: "device_code",
	}
}

func newTestSession(pres presenter.Presenter, svc service.Service, options ...Option) (*Session, *store.Store) {
	accounts := store.New(store.NewMemory())
	accounts.Init(context.Background())
	resolver := region.New(region.CN)
	return New("client-1", resolver, accounts, svc, pres, options...), accounts
}

func TestLogin_Success(t *testing.T) {
	pres := &fakePresenter{result: authResult()}
	svc := &fakeService{profile: &account.Profile{OpenID: "open-1", UnionID: "union-1", Name: "bob"}}
	sink := &recordingSink{}
	events := tracker.New(sink)
	s, accounts := newTestSession(pres, svc, WithTracker(events))

	ret, err := s.Login(context.Background(), account.ScopePublicProfile)
	require.NoError(t, err)
	require.NotNil(t, ret)
	assert.Equal(t, "kid-1", ret.AccessToken.KeyID)
	assert.Equal(t, "open-1", ret.OpenID)
	assert.Equal(t, "bob", ret.Name)

	// write-through: the store now serves the same account
	assert.Equal(t, ret, accounts.Current())

	// guard released: a subsequent login is accepted
	_, err = s.Login(context.Background())
	require.NoError(t, err)

	events.Close()
	assert.Equal(t, []string{"start", "success", "start", "success"}, sink.phases())
}

func TestLogin_WhilePending(t *testing.T) {
	pres := &fakePresenter{block: make(chan struct{}), result: authResult()}
	svc := &fakeService{profile: &account.Profile{OpenID: "open-1"}}
	sink := &recordingSink{}
	events := tracker.New(sink)
	s, accounts := newTestSession(pres, svc, WithTracker(events))

	first := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background())
		first <- err
	}()

	// wait for the first login to reach the presenter
	require.Eventually(t, func() bool { return pres.callCount() == 1 }, time.Second, time.Millisecond)

	_, err := s.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, taperr.CodeInvalidLoginState, taperr.Code(err))
	// the rejected call had no side effects
	assert.Equal(t, 1, pres.callCount())
	assert.Nil(t, accounts.Current())

	close(pres.block)
	require.NoError(t, <-first)

	events.Close()
	assert.Equal(t, []string{"start", "success"}, sink.phases())
}

func TestLogin_Concurrent_OnlyOnePassesGuard(t *testing.T) {
	pres := &fakePresenter{block: make(chan struct{}), result: authResult()}
	svc := &fakeService{profile: &account.Profile{OpenID: "open-1"}}
	s, _ := newTestSession(pres, svc)

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Login(context.Background())
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return pres.callCount() == 1 }, time.Second, time.Millisecond)
	close(pres.block)
	wg.Wait()
	close(errs)

	succeeded, rejected := 0, 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else if taperr.Code(err) == taperr.CodeInvalidLoginState {
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
}

func TestLogin_Closed(t *testing.T) {
	pres := &fakePresenter{err: presenter.ErrClosed}
	svc := &fakeService{}
	sink := &recordingSink{}
	events := tracker.New(sink)
	s, accounts := newTestSession(pres, svc, WithTracker(events))

	_, err := s.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, taperr.CodeLoginCancel, taperr.Code(err))
	assert.Nil(t, accounts.Current())

	// guard released
	pres.err = nil
	pres.result = authResult()
	svc.profile = &account.Profile{OpenID: "open-1"}
	_, err = s.Login(context.Background())
	require.NoError(t, err)

	events.Close()
	assert.Equal(t, []string{"start", "cancel", "start", "success"}, sink.phases())
}

func TestLogin_PresenterError(t *testing.T) {
	presErr := taperr.New(40100, "access denied")
	pres := &fakePresenter{err: presErr}
	sink := &recordingSink{}
	events := tracker.New(sink)
	s, accounts := newTestSession(pres, &fakeService{}, WithTracker(events))

	_, err := s.Login(context.Background())
	require.ErrorIs(t, err, presErr)
	assert.Nil(t, accounts.Current())

	events.Close()
	phases := sink.phases()
	require.Equal(t, []string{"start", "failure"}, phases)
}

func TestLogin_ProfileFetchFails(t *testing.T) {
	pres := &fakePresenter{result: authResult()}
	svc := &fakeService{profileErr: &service.Error{Code: 500, Message: "boom"}}
	s, accounts := newTestSession(pres, svc)

	_, err := s.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, taperr.CodeUndefined, taperr.Code(err))
	assert.Nil(t, accounts.Current())

	// nil profile without error is the same failure
	svc.profileErr = nil
	svc.profile = nil
	_, err = s.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, taperr.CodeUndefined, taperr.Code(err))
}

func TestLogin_MissingAuthorizationPayload(t *testing.T) {
	pres := &fakePresenter{result: &presenter.Result{Channel: "device_code"}}
	s, _ := newTestSession(pres, &fakeService{})

	_, err := s.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, taperr.CodeUndefined, taperr.Code(err))
}

func TestNormalizeScopes(t *testing.T) {
	testCases := []struct {
		description string
		compliance  string
		input       []string
		expect      []string
	}{
		{
			description: "public profile added once",
			input:       nil,
			expect:      []string{account.ScopePublicProfile},
		},
		{
			description: "no duplicate when caller already supplied it",
			input:       []string{account.ScopePublicProfile, account.ScopePublicProfile},
			expect:      []string{account.ScopePublicProfile},
		},
		{
			description: "caller scopes preserved",
			input:       []string{account.ScopeBasicInfo},
			expect:      []string{account.ScopeBasicInfo, account.ScopePublicProfile},
		},
		{
			description: "compliance scope appended once",
			compliance:  "age_range",
			input:       []string{"age_range"},
			expect:      []string{"age_range", account.ScopePublicProfile},
		},
		{
			description: "compliance scope added when absent",
			compliance:  "age_range",
			input:       nil,
			expect:      []string{account.ScopePublicProfile, "age_range"},
		},
	}
	for _, testCase := range testCases {
		pres := &fakePresenter{result: authResult()}
		svc := &fakeService{profile: &account.Profile{OpenID: "open-1"}}
		var options []Option
		if testCase.compliance != "" {
			options = append(options, WithCompliance(staticCompliance{scope: testCase.compliance}))
		}
		s, _ := newTestSession(pres, svc, options...)
		_, err := s.Login(context.Background(), testCase.input...)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, pres.requestedScopes(), testCase.description)
	}
}

func TestAuthorize(t *testing.T) {
	pres := &fakePresenter{result: authResult()}
	s, accounts := newTestSession(pres, &fakeService{})

	token, err := s.Authorize(context.Background(), "basic_info", "basic_info")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "kid-1", token.KeyID)
	// scope list deduplicated, public profile NOT forced in
	assert.Equal(t, []string{"basic_info"}, pres.requestedScopes())
	// no persistence
	assert.Nil(t, accounts.Current())
}

func TestAuthorize_Closed(t *testing.T) {
	pres := &fakePresenter{err: presenter.ErrClosed}
	s, _ := newTestSession(pres, &fakeService{})

	_, err := s.Authorize(context.Background())
	require.Error(t, err)
	assert.Equal(t, taperr.CodeLoginCancel, taperr.Code(err))
}

func TestAuthorize_HasNoGuard(t *testing.T) {
	pres := &fakePresenter{block: make(chan struct{}), result: authResult()}
	svc := &fakeService{profile: &account.Profile{OpenID: "open-1"}}
	s, _ := newTestSession(pres, svc)

	login := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background())
		login <- err
	}()
	require.Eventually(t, func() bool { return pres.callCount() == 1 }, time.Second, time.Millisecond)

	// Authorize runs alongside the pending Login
	authorize := make(chan error, 1)
	go func() {
		_, err := s.Authorize(context.Background())
		authorize <- err
	}()
	require.Eventually(t, func() bool { return pres.callCount() == 2 }, time.Second, time.Millisecond)

	close(pres.block)
	require.NoError(t, <-login)
	require.NoError(t, <-authorize)
}

func TestLogout(t *testing.T) {
	pres := &fakePresenter{result: authResult()}
	svc := &fakeService{profile: &account.Profile{OpenID: "open-1"}}
	s, accounts := newTestSession(pres, svc)

	_, err := s.Login(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s.CurrentAccount())

	s.Logout(context.Background())
	assert.Nil(t, s.CurrentAccount())
	assert.Nil(t, accounts.Current())
}

func refreshFixture(t *testing.T, svc service.Service) (*Session, *store.Store, *account.Account) {
	t.Helper()
	accounts := store.New(store.NewMemory())
	accounts.Init(context.Background())
	cached := account.New(
		&account.AccessToken{KeyID: "kid-old", MacKey: "old"},
		&account.Profile{OpenID: "open-1", UnionID: "union-1"},
	)
	accounts.SetCurrent(context.Background(), cached)
	resolver := region.New(region.CN)
	return New("client-1", resolver, accounts, svc, &fakePresenter{}), accounts, cached
}

func TestRefresh_NegativeServiceCodeClearsAccount(t *testing.T) {
	svc := &fakeService{tokenErr: &service.Error{Code: -1, Message: "revoked"}}
	s, accounts, _ := refreshFixture(t, svc)

	s.Refresh(context.Background())
	assert.Nil(t, accounts.Current())
}

func TestRefresh_OtherErrorKeepsAccount(t *testing.T) {
	svc := &fakeService{tokenErr: &service.Error{Code: 500, Message: "unavailable"}}
	s, accounts, cached := refreshFixture(t, svc)

	s.Refresh(context.Background())
	assert.Equal(t, cached, accounts.Current())
}

func TestRefresh_NoNewTokenKeepsAccount(t *testing.T) {
	s, accounts, cached := refreshFixture(t, &fakeService{})

	s.Refresh(context.Background())
	assert.Equal(t, cached, accounts.Current())
}

func TestRefresh_NewTokenUpdatesAccount(t *testing.T) {
	svc := &fakeService{
		token:   &account.AccessToken{KeyID: "kid-new", MacKey: "new"},
		profile: &account.Profile{OpenID: "open-1", UnionID: "union-1", Name: "bob"},
	}
	s, accounts, _ := refreshFixture(t, svc)

	s.Refresh(context.Background())
	current := accounts.Current()
	require.NotNil(t, current)
	assert.Equal(t, "kid-new", current.AccessToken.KeyID)
	assert.Equal(t, "bob", current.Name)
}

func TestRefresh_ProfileFailureKeepsAccount(t *testing.T) {
	svc := &fakeService{
		token:      &account.AccessToken{KeyID: "kid-new"},
		profileErr: &service.Error{Code: 500, Message: "boom"},
	}
	s, accounts, cached := refreshFixture(t, svc)

	s.Refresh(context.Background())
	assert.Equal(t, cached, accounts.Current())
}

func TestRefresh_NoAccountIsNoOp(t *testing.T) {
	accounts := store.New(store.NewMemory())
	accounts.Init(context.Background())
	s := New("client-1", region.New(region.CN), accounts, &fakeService{}, &fakePresenter{})

	s.Refresh(context.Background())
	assert.Nil(t, accounts.Current())
}
