package account

// Profile carries the user attributes returned by the profile endpoint. It is
// fetched fresh on every login and refresh and is only persisted embedded in
// an Account.
type Profile struct {
	OpenID  string `json:"openid" yaml:"openid"`
	UnionID string `json:"unionid" yaml:"unionid"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Avatar  string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
}
