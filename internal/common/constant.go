// Package common contains shared constants and sentinel errors used across
// Memora client components.
package common

// AuthorizationHeaderName is the HTTP header carrying the session token on
// protected requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// RequestIDHeaderName carries a per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"

// Metadata keys under which the session pair is persisted.
const (
	MetadataKeyUsername = "username"
	MetadataKeyToken    = "token"
)
