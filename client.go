package taplogin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tapsdk/taplogin/account"
	"github.com/tapsdk/taplogin/presenter"
	"github.com/tapsdk/taplogin/region"
	"github.com/tapsdk/taplogin/service"
	"github.com/tapsdk/taplogin/session"
	"github.com/tapsdk/taplogin/store"
	"github.com/tapsdk/taplogin/tracker"
)

// Login scopes re-exported for callers of the facade.
const (
	ScopePublicProfile = account.ScopePublicProfile
	ScopeBasicInfo     = account.ScopeBasicInfo
)

// Config defines the static configuration of a login client. It can be
// populated from CLI flags or configuration files.
type Config struct {
	ClientID   string `yaml:"clientId" json:"clientId" short:"c" long:"client-id" description:"application client id"`
	Region     string `yaml:"region,omitempty" json:"region,omitempty" short:"r" long:"region" description:"deployment region" choice:"CN" choice:"Global"`
	TestEnv    bool   `yaml:"testEnv,omitempty" json:"testEnv,omitempty" long:"test-env" description:"use the internal test host set"`
	StorageDir string `yaml:"storageDir,omitempty" json:"storageDir,omitempty" long:"storage-dir" description:"directory for persisted session records"`
	UseKeyring bool   `yaml:"useKeyring,omitempty" json:"useKeyring,omitempty" long:"use-keyring" description:"persist the session in the OS keyring instead of a file"`
}

// Init fills defaults.
func (c *Config) Init() {
	if c.Region == "" {
		c.Region = region.CN.String()
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("clientId is required")
	}
	if _, err := c.region(); err != nil {
		return err
	}
	return nil
}

func (c *Config) region() (region.Region, error) {
	switch c.Region {
	case region.CN.String(), "":
		return region.CN, nil
	case region.Global.String():
		return region.Global, nil
	default:
		return region.CN, fmt.Errorf("unknown region %q", c.Region)
	}
}

// Client is the public entry point of the SDK.
type Client struct {
	config   *Config
	resolver *region.Resolver
	accounts *store.Store
	session  *session.Session
	tracker  *tracker.Tracker
}

// NewClient builds a fully wired login client, loads the persisted session
// and kicks off the detached token refresh. The refresh is not awaited:
// right after NewClient returns the cached account is only eventually
// refreshed-valid.
func NewClient(ctx context.Context, config *Config, options ...Option) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	reg, _ := config.region()

	opts := newOptions(options)
	var regionOptions []region.Option
	if config.TestEnv {
		regionOptions = append(regionOptions, region.WithTestEnv())
	}
	resolver := region.New(reg, regionOptions...)

	storage := opts.storage
	if storage == nil {
		var err error
		if storage, err = defaultStorage(config); err != nil {
			return nil, err
		}
	}
	storeOptions := []store.Option{store.WithLogger(opts.logger)}
	if opts.observer != nil {
		storeOptions = append(storeOptions, store.WithObserver(opts.observer))
	}
	accounts := store.New(storage, storeOptions...)
	accounts.Init(ctx)

	svc := opts.service
	if svc == nil {
		var serviceOptions []service.ClientOption
		if opts.httpClient != nil {
			serviceOptions = append(serviceOptions, service.WithHTTPClient(opts.httpClient))
		}
		svc = service.NewClient(config.ClientID, resolver, serviceOptions...)
	}

	pres := opts.presenter
	if pres == nil {
		var deviceOptions []presenter.DeviceOption
		if opts.deviceAuthHandler != nil {
			deviceOptions = append(deviceOptions, presenter.WithDeviceAuthHandler(opts.deviceAuthHandler))
		}
		if opts.httpClient != nil {
			deviceOptions = append(deviceOptions, presenter.WithDeviceHTTPClient(opts.httpClient))
		}
		pres = presenter.NewDeviceFlow(resolver, deviceOptions...)
	}

	events := tracker.New(opts.sink, opts.trackerOptions...)

	sessionOptions := []session.Option{
		session.WithTracker(events),
		session.WithLogger(opts.logger),
	}
	if opts.compliance != nil {
		sessionOptions = append(sessionOptions, session.WithCompliance(opts.compliance))
	}
	ret := &Client{
		config:   config,
		resolver: resolver,
		accounts: accounts,
		session:  session.New(config.ClientID, resolver, accounts, svc, pres, sessionOptions...),
		tracker:  events,
	}
	go ret.session.Refresh(context.WithoutCancel(ctx))
	return ret, nil
}

func defaultStorage(config *Config) (store.Storage, error) {
	if config.UseKeyring {
		return store.NewKeyring("taplogin-" + config.ClientID), nil
	}
	baseDir := config.StorageDir
	if baseDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
		}
		baseDir = filepath.Join(configDir, "taplogin", config.ClientID)
	}
	return store.NewFile(baseDir), nil
}

// Login performs an interactive login with the given scopes and returns the
// persisted account. See session.Session.Login for the full contract.
func (c *Client) Login(ctx context.Context, scopes ...string) (*account.Account, error) {
	return c.session.Login(ctx, scopes...)
}

// Authorize performs the token-only flow: no profile fetch, no persistence.
func (c *Client) Authorize(ctx context.Context, scopes ...string) (*account.AccessToken, error) {
	return c.session.Authorize(ctx, scopes...)
}

// Logout drops the cached session and erases its durable mirror.
func (c *Client) Logout(ctx context.Context) {
	c.session.Logout(ctx)
}

// CurrentAccount returns the cached account, or nil when nobody is logged in.
func (c *Client) CurrentAccount() *account.Account {
	return c.session.CurrentAccount()
}

// Resolver exposes the endpoint resolver, mostly for diagnostics.
func (c *Client) Resolver() *region.Resolver {
	return c.resolver
}

// TrackingDropped reports how many tracking events were discarded.
func (c *Client) TrackingDropped() uint64 {
	return c.tracker.Dropped()
}

// Close flushes the tracking dispatcher.
func (c *Client) Close() {
	c.tracker.Close()
}
