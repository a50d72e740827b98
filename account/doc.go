// Package account defines the value types shared across the SDK: the MAC
// access token, the user profile and the Account aggregate that combines both
// and is the unit of persistence.
package account
