// Package common defines shared constants and sentinel errors used across
// the Memora client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Session resolution: the stored credential could not be read. Always
	// resolved toward the unauthenticated state.
	ErrAuthResolution = errors.New("session resolution failed")

	// Login, signup or 2FA verification rejected by the server.
	ErrCredentials = errors.New("credentials rejected")

	// Search collaborator failed; previously displayed results are kept.
	ErrSearch = errors.New("search failed")

	// Upload errors.
	ErrUploadBusy = errors.New("upload already in progress")
	ErrUpload     = errors.New("upload failed")
	ErrNoDraft    = errors.New("no upload draft to retry")

	// 2FA flow errors.
	ErrNoPendingChallenge = errors.New("no pending two-factor challenge")

	// State machine misuse.
	ErrInvalidTransition = errors.New("invalid auth phase transition")

	// Network boundary validation.
	ErrMalformedPayload = errors.New("malformed payload")
	ErrDuplicatePhotoID = errors.New("duplicate photo id in listing")

	// A result arrived for a request that has since been superseded.
	ErrStaleResult = errors.New("stale result discarded")

	// Local input validation.
	ErrEmptyInput = errors.New("required input is empty")
)
