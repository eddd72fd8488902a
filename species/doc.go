// Package species holds the shared per-species data of the nursery.
//
// A Catalog is the flyweight factory: every Plant of a SKU references the single Record
// stored here instead of carrying its own copy. Records are treated as immutable once added.
// Catalogs can be seeded from YAML, and DefaultCatalog loads the embedded seed list.
package species
