// Package auth holds the authentication gate: the phase state machine that
// decides, for every navigation, whether the user may see a route.
package auth

// Route names a screen of the client.
type Route string

const (
	RouteHome      Route = "/"
	RouteLogin     Route = "login"
	RouteSignup    Route = "signup"
	RouteTwoFactor Route = "2fa"
	RouteGallery   Route = "gallery"
	RouteSearch    Route = "search"
)

// LandingRoute is where an authenticated user is sent away from login/signup.
const LandingRoute = RouteHome

// RouteClass groups routes by the access they require.
type RouteClass int

const (
	RouteClassProtected RouteClass = iota
	RouteClassPublic
	RouteClassAuthTransitional
)

func (c RouteClass) String() string {
	switch c {
	case RouteClassPublic:
		return "public"
	case RouteClassAuthTransitional:
		return "auth-transitional"
	default:
		return "protected"
	}
}

// Classify resolves the class of r. Unknown routes are protected.
func Classify(r Route) RouteClass {
	switch r {
	case RouteLogin, RouteSignup:
		return RouteClassPublic
	case RouteTwoFactor:
		return RouteClassAuthTransitional
	default:
		return RouteClassProtected
	}
}

// DecisionKind is the outcome of a navigation.
type DecisionKind int

const (
	// Hold: the session is still being resolved, render nothing.
	Hold DecisionKind = iota
	Allow
	Redirect
)

// Decision is returned by Gate.Navigate. Target is set only for Redirect.
type Decision struct {
	Kind   DecisionKind
	Target Route
}

func (d Decision) String() string {
	switch d.Kind {
	case Hold:
		return "hold"
	case Allow:
		return "allow"
	default:
		return "redirect to " + string(d.Target)
	}
}

// decide applies the routing rule for phase p and route r.
func decide(st State, r Route) Decision {
	switch st.Phase {
	case PhaseResolving:
		return Decision{Kind: Hold}
	case PhaseAuthenticated:
		if Classify(r) == RouteClassPublic {
			return Decision{Kind: Redirect, Target: LandingRoute}
		}
		return Decision{Kind: Allow}
	case PhasePendingTwoFactor:
		if Classify(r) == RouteClassProtected {
			return Decision{Kind: Redirect, Target: RouteLogin}
		}
		return Decision{Kind: Allow}
	default:
		switch Classify(r) {
		case RouteClassPublic:
			return Decision{Kind: Allow}
		default:
			// 2fa without a pending identity is as good as protected.
			return Decision{Kind: Redirect, Target: RouteLogin}
		}
	}
}
