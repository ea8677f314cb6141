// Package models defines the client-side data model: the persisted Session,
// the transient PendingIdentity, and the Photo, SearchHit and Verdict
// payloads exchanged with the backend.
//
// Payloads are decoded through the Decode* functions, which validate them at
// the network boundary and reject malformed input with
// common.ErrMalformedPayload instead of passing partial values on.
package models
