// Package plant models a single nursery plant.
//
// A Plant owns three bounded resources (moisture, insecticide, health), a CareStrategy chosen
// by its species' biome, and a lifecycle State. Care actions apply the strategy and then run
// one lifecycle check; Check runs one check on its own. Both are atomic per plant.
//
// Lifecycle: Seedling -> Growing -> Mature, Growing|Mature -> Wilting, Wilting -> Mature,
// and any state -> Dead once health reaches zero. Dead is terminal.
//
// Plant age is simulated: elapsed Environment clock time divided by the configured seconds
// per simulated day.
package plant
