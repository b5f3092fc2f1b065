/*
Package domain contains the core value objects shared across the engine:
the sliced State document, typed accessors, decision records, lifecycle
events and the error taxonomy.

Nothing in this package performs I/O. State values are immutable by
convention: every transformation returns a new top-level map that shares
unmodified slices with its predecessor.
*/
package domain
