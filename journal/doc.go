// Package journal is the append-only audit trail of the nursery.
//
// Commands and domain events are recorded as Entries. MemoryJournal keeps entries in process;
// the postgresjournal subpackage persists them. EventRecorder subscribes to an events.Bus and
// appends one entry per event, with the event payload encoded as JSON.
package journal
