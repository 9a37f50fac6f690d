// Package session owns the console's authentication state.
//
// # Lifecycle
//
// A Gate is created once at startup and handed to the API client (it
// implements aidb.TokenSource) and to the UI:
//
//	process start ──► Verifying ──verify ok──► Authenticated
//	      │               └──verify failed──► Unauthenticated (credentials cleared)
//	      └── no stored token ──────────────► Unauthenticated
//
// Login moves any state to Authenticated and persists the credentials.
// Logout and Expire move to Unauthenticated and clear them. A verification
// result that arrives after a Login is ignored.
//
// # Persistence
//
// FileStore keeps access_token, user_email and is_logged_in in a TOML file
// (mode 0600, default ~/.config/padb/credentials.toml). The three keys are
// always written and removed together.
//
// # Routing
//
// Policy.Decide maps (status, route) to a Decision: while Verifying show a
// neutral loading view, Unauthenticated is forced to the login route and
// Authenticated is forced away from it.
//
// # Token Claims
//
// ParseClaims reads sub and exp from the JWT without checking the signature;
// the expiry is only displayed. The API stays the authority and a 401 from
// any call ends the session through Expire.
package session
