// Package events defines the nursery's domain events and the Bus that fans them out.
//
// Three event families exist: PlantEvent (lifecycle transitions reported by the greenhouse),
// StockEvent (shipments and sales stock movements) and OrderEvent (order lifecycle). Order
// events are delivered by pointer so observers may enrich them, for example with the assigned
// staff member.
//
// Observers implement one or more of PlantObserver, StockObserver and OrderObserver and are
// called synchronously in registration order. A panicking observer is recovered and logged,
// and delivery continues with the next one.
package events
