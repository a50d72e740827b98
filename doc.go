// Package taplogin is an embedded OAuth2 device-flow login client. It lets an
// application authenticate a user against the TapTap identity provider,
// obtain a scoped MAC access token, fetch the matching profile and keep the
// resulting session across restarts.
//
// The package is an umbrella facade: NewClient wires the region resolver,
// account store, login/token service, presenter and tracking dispatcher
// together and exposes the caller-facing operations — Login, Authorize,
// Logout and CurrentAccount. Each collaborator can be swapped through a
// functional option, which is also how tests drive the flows end to end
// without the network.
//
// Example:
//
//	cli, _ := taplogin.NewClient(ctx, &taplogin.Config{ClientID: "my-client", Region: "CN"})
//	account, err := cli.Login(ctx)
//
// See the example directory for a runnable device-code login.
package taplogin
