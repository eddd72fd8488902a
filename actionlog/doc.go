// Package actionlog queues staff and automated care actions as commands and executes them in
// FIFO order.
//
// Water, Fertilize and Spray target one plant and cannot be undone. Restock receives a shipment
// and remembers exactly which plants it added, so undoing it removes only those. A Macro runs
// sub-commands in order and rolls back the executed ones, in reverse, when one fails.
//
// Successfully executed undoable commands are pushed onto a history stack; UndoLastRestock pops
// and reverts the most recent one. Every enqueue, execution and undo is written to the journal.
package actionlog
