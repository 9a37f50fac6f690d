package ui

import "github.com/padbhq/padb/internal/session"

// Route names a screen. Detail and form routes take an id; zero means
// "new" for forms.
type Route string

const (
	RouteLogin       Route = "login"
	RouteDashboard   Route = "dashboard"
	RouteContacts    Route = "contacts"
	RouteContact     Route = "contact"
	RouteContactForm Route = "contact-form"
	RouteEvents      Route = "events"
	RouteEvent       Route = "event"
	RouteEventForm   Route = "event-form"
	RouteAudio       Route = "audio"
	RouteSearch      Route = "search"
	RouteSettings    Route = "settings"
	RouteLogs        Route = "logs"
)

var routePolicy = session.Policy{
	LoginRoute: string(RouteLogin),
	HomeRoute:  string(RouteDashboard),
}

// Title is the label shown in the header.
func (r Route) Title() string {
	switch r {
	case RouteLogin:
		return "Sign in"
	case RouteDashboard:
		return "Dashboard"
	case RouteContacts:
		return "Contacts"
	case RouteContact:
		return "Contact"
	case RouteContactForm:
		return "Edit contact"
	case RouteEvents:
		return "Events"
	case RouteEvent:
		return "Event"
	case RouteEventForm:
		return "Edit event"
	case RouteAudio:
		return "Audio"
	case RouteSearch:
		return "Search"
	case RouteSettings:
		return "Settings"
	case RouteLogs:
		return "Logs"
	default:
		return titleCase(string(r))
	}
}

// navRoutes are reachable with the number keys, in order.
var navRoutes = []Route{
	RouteDashboard,
	RouteContacts,
	RouteEvents,
	RouteAudio,
	RouteSearch,
	RouteSettings,
	RouteLogs,
}

// newScreen builds the screen for a route.
func newScreen(b base, route Route, id int64) screen {
	switch route {
	case RouteLogin:
		return newLoginScreen(b)
	case RouteContacts:
		return newContactsScreen(b)
	case RouteContact:
		return newContactDetailScreen(b, id)
	case RouteContactForm:
		return newContactFormScreen(b, id)
	case RouteEvents:
		return newEventsScreen(b)
	case RouteEvent:
		return newEventDetailScreen(b, id)
	case RouteEventForm:
		return newEventFormScreen(b, id)
	case RouteAudio:
		return newAudioScreen(b)
	case RouteSearch:
		return newSearchScreen(b)
	case RouteSettings:
		return newSettingsScreen(b)
	case RouteLogs:
		return newLogsScreen(b)
	default:
		return newDashboardScreen(b)
	}
}
