package account

import (
	"encoding/json"
	"fmt"
)

// Account is the unit of persistence and of "current session" identity: an
// access token plus the profile it was issued for. Accounts are replaced
// wholesale on every update, never field-mutated.
type Account struct {
	AccessToken *AccessToken `json:"access_token" yaml:"access_token"`
	OpenID      string       `json:"openid" yaml:"openid"`
	UnionID     string       `json:"unionid" yaml:"unionid"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Avatar      string       `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Email       string       `json:"email,omitempty" yaml:"email,omitempty"`
}

// New assembles an Account from a token and the profile fetched with it.
func New(token *AccessToken, profile *Profile) *Account {
	return &Account{
		AccessToken: token,
		OpenID:      profile.OpenID,
		UnionID:     profile.UnionID,
		Name:        profile.Name,
		Avatar:      profile.Avatar,
		Email:       profile.Email,
	}
}

// Profile returns the profile attributes embedded in the account.
func (a *Account) Profile() *Profile {
	return &Profile{
		OpenID:  a.OpenID,
		UnionID: a.UnionID,
		Name:    a.Name,
		Avatar:  a.Avatar,
		Email:   a.Email,
	}
}

// Encode serialises the account to its persisted JSON form.
func (a *Account) Encode() ([]byte, error) {
	return json.Marshal(a)
}

// Decode parses a persisted account, enforcing the invariant that a token
// never comes without an open id.
func Decode(data []byte) (*Account, error) {
	ret := &Account{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	if ret.AccessToken != nil && ret.OpenID == "" {
		return nil, fmt.Errorf("invalid account: access token without openid")
	}
	return ret, nil
}
