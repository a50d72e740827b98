package presenter

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/tapsdk/taplogin/region"
)

const channelDeviceCode = "device_code"

// DeviceAuthHandler receives the device authorization details (verification
// URI, user code) so the application can show them to the user. Rendering is
// entirely up to the caller.
type DeviceAuthHandler func(auth *oauth2.DeviceAuthResponse)

// DeviceFlow is a presenter implementing the OAuth2 device authorization
// grant: it requests a device code, hands the verification details to the
// application and polls the token endpoint until the user approves, declines
// or the context is cancelled.
type DeviceFlow struct {
	resolver   *region.Resolver
	handler    DeviceAuthHandler
	httpClient *http.Client
}

// DeviceOption customises a DeviceFlow.
type DeviceOption func(*DeviceFlow)

// WithDeviceAuthHandler registers the callback surfacing the verification
// details to the user.
func WithDeviceAuthHandler(handler DeviceAuthHandler) DeviceOption {
	return func(d *DeviceFlow) {
		d.handler = handler
	}
}

// WithDeviceHTTPClient overrides the HTTP client used for the grant.
func WithDeviceHTTPClient(httpClient *http.Client) DeviceOption {
	return func(d *DeviceFlow) {
		d.httpClient = httpClient
	}
}

// NewDeviceFlow creates a device-code presenter for the given region.
func NewDeviceFlow(resolver *region.Resolver, options ...DeviceOption) *DeviceFlow {
	ret := &DeviceFlow{resolver: resolver}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Present implements Presenter.
func (d *DeviceFlow) Present(ctx context.Context, request Request) (*Result, error) {
	if d.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)
	}
	config := &oauth2.Config{
		ClientID: request.ClientID,
		Scopes:   request.Scopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: d.resolver.CodeURL(),
			TokenURL:      d.resolver.TokenURL(),
		},
	}
	auth, err := config.DeviceAuth(ctx)
	if err != nil {
		return nil, d.closedOr(ctx, err)
	}
	if d.handler != nil {
		d.handler(auth)
	}
	token, err := config.DeviceAccessToken(ctx, auth)
	if err != nil {
		return nil, d.closedOr(ctx, err)
	}
	return &Result{Token: rawToken(token, request.Scopes), Channel: channelDeviceCode}, nil
}

// closedOr maps context cancellation, the only dismissal path of a headless
// flow, to ErrClosed.
func (d *DeviceFlow) closedOr(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrClosed
	}
	return err
}

func rawToken(token *oauth2.Token, requested []string) *RawToken {
	ret := &RawToken{
		KeyID:        extra(token, "kid"),
		TokenType:    token.TokenType,
		MacKey:       extra(token, "mac_key"),
		MacAlgorithm: extra(token, "mac_algorithm"),
		Scopes:       requested,
	}
	if granted := extra(token, "scope"); granted != "" {
		ret.Scopes = strings.Fields(granted)
	}
	return ret
}

func extra(token *oauth2.Token, key string) string {
	value, _ := token.Extra(key).(string)
	return value
}
