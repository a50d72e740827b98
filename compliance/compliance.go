// Package compliance declares the optional capability a compliance extension
// can contribute to the login flow. The SDK works without one; the provider is
// injected explicitly at construction rather than discovered dynamically.
package compliance

// Provider contributes an extra age-range scope to interactive logins.
type Provider interface {
	// AgeRangeScope returns the scope to request for the current region, or
	// ok=false when no extra scope applies. restrictedRegion is true for the
	// CN deployment.
	AgeRangeScope(restrictedRegion bool) (scope string, ok bool)
}
