// Package store persists the two pieces of shared state the bot owns:
//
//   - the snapshot of all shows seen at the last successful check
//     (the diff baseline, replaced wholesale on save)
//   - the subscriber registry (recipients of new-show notifications)
//
// Backends are selected by driver string; all of them satisfy Store.
package store
