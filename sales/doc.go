// Package sales places, completes and cancels customer orders against the inventory.
//
// Placing an order reserves one available plant per requested unit, all or nothing. Completing
// it marks the plants sold and takes them out of the greenhouse; cancelling releases them.
// Every step is published on the event bus as stock and order events. The StaffRoster is an
// order observer that assigns the least-loaded staff member to each placed order.
package sales
