// Package region maps a deployment region (CN or Global) to the base hosts the
// SDK builds its OAuth2 and account endpoint URLs from, with an alternative
// internal test host set selectable at construction time.
package region
