// Package example contains self-contained snippets that demonstrate how to
// wire and use the login client, from an in-memory end-to-end flow to the
// runnable device-code CLI under cli/.
package example
