// Package greenhouse owns the live plant population.
//
// A Greenhouse receives shipments by cloning species prototypes, applies care to single plants,
// advances every plant one lifecycle step per TickAll, and reports lifecycle transitions as
// PlantEvents and shipments as StockEvents on its events.Bus.
//
// Plants that die during a tick stay in place until the tick has visited every plant and are
// removed afterwards. Iteration always runs over a snapshot taken when the iterator is created.
package greenhouse
