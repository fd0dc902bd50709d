// Package ledger holds the state machines of the membership and
// participation ledger and the balance account they refund into.
//
// Transitions are pure functions over models loaded inside a store
// transaction. They validate first and mutate only on success, so a
// rejected transition leaves the in-memory copy untouched. Persisting the
// result is the caller's job (see package lifecycle).
//
// Membership:
//
//	pending → active → removed → pending → active …
//	active → left (terminal)
//
// Participation:
//
//	active ⇄ vacation
//	active|vacation → cancelled (terminal for the row)
package ledger
