// Package state tracks the controller lifecycle shared between the search
// worker and the UI.
//
// # Overview
//
// The worker goroutine advances the phase while the Bubble Tea update loop
// reads snapshots to decide what to render. Store serialises both sides with
// a mutex and hands out copies.
//
// # Phases
//
//	Uninitialized ──→ Connecting ──→ Connected ⇄ Searching
//	                      │   ↑
//	                      ↓   │ (retry on next search)
//	                     Error
//
// Advance rejects any other transition.
//
// # Authentication Failures
//
// The session reports rejected credentials through an event callback, not
// through the return value of Open. The callback only records the failure:
//
//	store.RecordAuthFailure(ev.Message)
//
// and the code that called Open checks for it once Open returns:
//
//	if msg, failed := store.TakeAuthFailure(); failed {
//		_ = store.Advance(state.Error)
//	}
//
// TakeAuthFailure clears the flag so a retried connect starts clean.
package state
