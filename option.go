package taplogin

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tapsdk/taplogin/compliance"
	"github.com/tapsdk/taplogin/presenter"
	"github.com/tapsdk/taplogin/service"
	"github.com/tapsdk/taplogin/store"
	"github.com/tapsdk/taplogin/tracker"
)

// Option customises a Client beyond its static Config.
type Option func(*options)

type options struct {
	storage           store.Storage
	observer          store.Observer
	service           service.Service
	presenter         presenter.Presenter
	compliance        compliance.Provider
	sink              tracker.Sink
	trackerOptions    []tracker.Option
	logger            *zap.Logger
	httpClient        *http.Client
	deviceAuthHandler presenter.DeviceAuthHandler
}

func newOptions(opts []Option) *options {
	ret := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// WithStorage overrides the durable storage backend.
func WithStorage(storage store.Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithObserver registers the open-id observer synchronised on every account
// change.
func WithObserver(observer store.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithService overrides the login/token service implementation.
func WithService(svc service.Service) Option {
	return func(o *options) {
		o.service = svc
	}
}

// WithPresenter overrides the interaction surface soliciting authorization.
func WithPresenter(pres presenter.Presenter) Option {
	return func(o *options) {
		o.presenter = pres
	}
}

// WithCompliance injects the optional compliance capability.
func WithCompliance(provider compliance.Provider) Option {
	return func(o *options) {
		o.compliance = provider
	}
}

// WithTrackerSink enables tracking event delivery to the given sink.
func WithTrackerSink(sink tracker.Sink, trackerOptions ...tracker.Option) Option {
	return func(o *options) {
		o.sink = sink
		o.trackerOptions = trackerOptions
	}
}

// WithLogger sets the logger; the default is a nop logger so the SDK stays
// quiet unless asked otherwise.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHTTPClient overrides the HTTP client used by the default service and
// device-flow presenter.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithDeviceAuthHandler registers the callback that surfaces the device-flow
// verification URI and user code to the user.
func WithDeviceAuthHandler(handler presenter.DeviceAuthHandler) Option {
	return func(o *options) {
		o.deviceAuthHandler = handler
	}
}
