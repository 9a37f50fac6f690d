package session

// Policy turns the session status into routing decisions. Route names are
// opaque strings owned by the caller.
type Policy struct {
	LoginRoute string
	HomeRoute  string
}

// Decision is what the caller should do for one navigation.
type Decision struct {
	// Loading means render a neutral indicator and no protected screen.
	Loading bool
	// Redirect, when non-empty, replaces the requested route.
	Redirect string
}

// Decide applies the policy to a requested route:
//
//   - Verifying: show loading, render nothing protected
//   - Unauthenticated: any route other than login goes to login
//   - Authenticated: login goes to home
func (p Policy) Decide(status Status, route string) Decision {
	switch status {
	case Verifying:
		return Decision{Loading: true}
	case Authenticated:
		if route == p.LoginRoute {
			return Decision{Redirect: p.HomeRoute}
		}
		return Decision{}
	default:
		if route != p.LoginRoute {
			return Decision{Redirect: p.LoginRoute}
		}
		return Decision{}
	}
}

// Target returns the route to show after applying the decision.
func (d Decision) Target(requested string) string {
	if d.Redirect != "" {
		return d.Redirect
	}
	return requested
}
