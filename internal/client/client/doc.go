// Package client talks to the Memora REST backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): login,
//     signup, the two 2FA calls, photo listing and upload, search and media
//     analysis.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that attaches the
//     bearer token from a token source, tags every request with an
//     X-Request-ID, validates payloads at the boundary and maps failures to
//     sentinel errors.
//
// # Error Handling
//
// Non-2xx responses become *APIError carrying the server's "error" message
// verbatim. 401/403 responses also match ErrUnauthorized, and transport
// failures match ErrUnavailable. Malformed payloads match
// common.ErrMalformedPayload. UserMessage turns any of these into text fit
// for the user.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept a
// context.Context and honor cancellation and deadlines.
package client
