// Package service defines the network contract consumed by the session
// orchestrator (profile fetch and token refresh) together with its HTTP
// implementation against the region endpoints.
package service
