package account

// Login scopes understood by the authorization server.
const (
	// ScopePublicProfile grants access to the user's public profile and is
	// implied by every interactive login.
	ScopePublicProfile = "public_profile"
	// ScopeBasicInfo grants access to the anonymised basic info only.
	ScopeBasicInfo = "basic_info"
)

// AccessToken is a MAC-type access token issued by the token endpoint.
// Values are immutable after construction; a refresh produces a new token
// rather than mutating the old one.
type AccessToken struct {
	KeyID        string   `json:"kid" yaml:"kid"`
	TokenType    string   `json:"token_type" yaml:"token_type"`
	MacKey       string   `json:"mac_key" yaml:"mac_key"`
	MacAlgorithm string   `json:"mac_algorithm" yaml:"mac_algorithm"`
	Scopes       []string `json:"scope_set,omitempty" yaml:"scope_set,omitempty"`
}

// HasScope reports whether the token was granted the given scope.
func (t *AccessToken) HasScope(scope string) bool {
	if t == nil {
		return false
	}
	for _, candidate := range t.Scopes {
		if candidate == scope {
			return true
		}
	}
	return false
}
