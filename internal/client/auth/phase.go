package auth

import "github.com/dmitrijs2005/memora/internal/client/models"

// Phase is the authentication phase.
type Phase int

const (
	PhaseResolving Phase = iota
	PhaseUnauthenticated
	PhasePendingTwoFactor
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseResolving:
		return "resolving"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhasePendingTwoFactor:
		return "pending-2fa"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is the phase together with its payload: Pending is set only in
// PhasePendingTwoFactor and Session only in PhaseAuthenticated.
type State struct {
	Phase   Phase
	Session models.Session
	Pending models.PendingIdentity
}

// Snapshot is published to subscribers after every transition. Redirect is
// empty when the current route stays valid.
type Snapshot struct {
	State    State
	Redirect Route
}
