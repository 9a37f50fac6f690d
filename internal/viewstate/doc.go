// Package viewstate holds the asynchronous state machines screens use to
// track network work.
//
// # Fetch
//
// Fetch[T] tracks one value through Idle → Loading → (Success | Failure).
// Begin returns a Ticket; Resolve only accepts the newest ticket, so a late
// response from a superseded fetch is dropped instead of overwriting newer
// state. Refetching clears the old value, and screens show a full-page
// spinner while Loading.
//
// Mutate edits the value in place after a successful create, update or
// delete, typically with the listops helpers:
//
//	f.Mutate(func(cs []aidb.Contact) []aidb.Contact {
//		return listops.InsertFront(cs, created)
//	})
//
// # Actions
//
// Actions[K] maps item ids to Pending → InProgress → (Done | Failed).
// Start on an id that is already InProgress returns false and changes
// nothing, which is how duplicate transcribe requests are suppressed. Prune
// removes the entry when the item itself is deleted.
//
// # Pipeline
//
// Pipeline[K] runs named Steps strictly in order for one id. A failing step
// stops the pipeline and the item ends Failed with a *StepError naming it.
// Nothing is retried automatically.
//
// # Thread Safety
//
// All types guard their state with a mutex. Pipelines run on background
// goroutines while the UI reads snapshots on the render loop.
package viewstate
