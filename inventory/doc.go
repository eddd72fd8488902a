// Package inventory tracks which plants are sellable.
//
// Every known plant has exactly one Status. Available, Reserved and Sold plants are also indexed
// in per-SKU sets so that counts are O(1); a plant ID is never in more than one set and every
// move between sets happens under one lock.
//
//	Available <-> Reserved -> Sold
//	Available -> Sold
//	Available -> Wilted -> Available   (PlantWilted / PlantMatured events)
//	any -> Dead                        (PlantDied event)
//
// The Service subscribes to PlantEvents to follow the greenhouse lifecycle.
package inventory
