// Package aidb provides an HTTP client for the Personal AI Database API.
//
// # Overview
//
// A Client owns the base URL, the http.Client and the bearer TokenSource.
// Typed resource facades hang off it, one per backend resource:
//
//   - Contacts: list, get, create, update, delete, similar
//   - Events: CRUD plus participants and AI recommendations
//   - Audio: list, get, multipart upload, transcribe, extract, delete
//   - Query: natural-language search, history, suggestions
//   - Auth: login, token verification, password change
//
// Each operation is a single request/response. There is no caching, no
// polling and no automatic retry; callers refetch to observe changes.
//
// # Client Usage
//
//	client, err := aidb.NewClient("http://127.0.0.1:8000/api/v1",
//		aidb.WithTokenSource(gate),
//		aidb.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//	contacts, err := client.Contacts.List(ctx, aidb.ContactFilter{Search: "ada"})
//
// # Authentication
//
// When the TokenSource yields a non-empty token, every request carries
// "Authorization: Bearer <token>". The client never mutates session state
// itself; a 401 surfaces as *HTTPStatusError and IsUnauthorized reports it.
//
// # Error Handling
//
//   - *NetworkError: no response reached the client (refused, DNS, timeout)
//   - *HTTPStatusError: 4xx/5xx; Detail() returns the backend's message
//   - *NotFoundError: a 404 on an id-addressed call, wrapping the status error
//   - *ValidationError: a draft failed the local pre-flight check
//   - *DecodeError: the response body did not match the expected shape
//
// Deleting an already deleted entity yields *NotFoundError rather than
// success.
//
// # Drafts
//
// ContactDraft, EventDraft, ParticipantDraft, PasswordChange and LoginDraft
// each have a Validate method returning every field problem at once. Create
// and Update call Normalize and Validate before touching the network, but the
// backend remains the authority.
//
// # Event Status
//
// Two spellings of the event lifecycle exist in the backend's history.
// EventStatus decodes upcoming/ongoing as planned/active so only the
// canonical values reach callers, and EventFilter encodes filters the same
// way.
//
// # Observability
//
// Every request gets a fresh X-Request-ID, a zerolog debug line and a sample
// in the padb_client_requests_total and padb_client_request_duration_seconds
// Prometheus series. WithDebugLogging adds full request/response dumps.
package aidb
