package region

// Region selects the deployment the SDK talks to. CN uses the mainland China
// host set, Global everything else.
type Region int

const (
	CN Region = iota
	Global
)

// String returns the canonical region name.
func (r Region) String() string {
	switch r {
	case CN:
		return "CN"
	case Global:
		return "Global"
	default:
		return "unknown"
	}
}

// hostSet groups the three base hosts every endpoint URL derives from.
type hostSet struct {
	web     string
	api     string
	account string
}

var production = map[Region]hostSet{
	CN: {
		web:     "https://accounts.tapapis.cn",
		api:     "https://open.tapapis.cn",
		account: "https://accounts.taptap.cn",
	},
	Global: {
		web:     "https://accounts.tapapis.com",
		api:     "https://open.tapapis.com",
		account: "https://accounts.taptap.io",
	},
}

var test = map[Region]hostSet{
	CN: {
		web:     "https://oauth.api.xdrnd.cn",
		api:     "https://open.api.xdrnd.cn",
		account: "https://accounts-beta.xdrnd.cn",
	},
	Global: {
		web:     "https://oauth.api.xdrnd.com",
		api:     "https://open.api.xdrnd.com",
		account: "https://accounts-io-beta.xdrnd.com",
	},
}

// Resolver derives endpoint URLs for a region. It is a pure value: construct
// it once and share it freely.
type Resolver struct {
	region  Region
	testEnv bool
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithTestEnv switches the resolver to the internal test host set.
func WithTestEnv() Option {
	return func(r *Resolver) {
		r.testEnv = true
	}
}

// New creates a resolver for the given region.
func New(region Region, options ...Option) *Resolver {
	ret := &Resolver{region: region}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Region returns the region this resolver was built for.
func (r *Resolver) Region() Region {
	return r.region
}

func (r *Resolver) hosts() hostSet {
	if r.testEnv {
		return test[r.region]
	}
	return production[r.region]
}

// WebHost returns the OAuth2 host.
func (r *Resolver) WebHost() string {
	return r.hosts().web
}

// APIHost returns the open API host.
func (r *Resolver) APIHost() string {
	return r.hosts().api
}

// AccountHost returns the interactive account host.
func (r *Resolver) AccountHost() string {
	return r.hosts().account
}

// CodeURL returns the device authorization endpoint.
func (r *Resolver) CodeURL() string {
	return r.WebHost() + "/oauth2/v1/device/code"
}

// TokenURL returns the token endpoint.
func (r *Resolver) TokenURL() string {
	return r.WebHost() + "/oauth2/v1/token"
}

// ProfileURL returns the profile endpoint; the client id is appended by the
// caller. Tokens without the public_profile scope only grant basic info.
func (r *Resolver) ProfileURL(includePublicProfile bool) string {
	if includePublicProfile {
		return r.APIHost() + "/account/profile/v1?client_id="
	}
	return r.APIHost() + "/account/basic-info/v1?client_id="
}

// AccountURL returns the interactive authorize URL prefix.
func (r *Resolver) AccountURL() string {
	return r.AccountHost() + "/authorize?"
}
