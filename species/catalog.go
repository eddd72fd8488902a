package species

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrEmptySKU = errors.New("species SKU must not be empty")
var ErrScaleOutOfRange = errors.New("species scale must be within [0,2]")
var ErrNegativePrice = errors.New("species base price must not be negative")

const maxScale = 2.0

// Record is the shared, immutable data of one species.
type Record struct {
	SKU                  string
	Name                 string
	Biome                Biome
	BasePrice            float64
	WaterSensitivity     float64
	InsecticideTolerance float64
	GrowthRate           float64
	ThrivingSeason       Season
}

// Validate checks the record's fields.
func (r Record) Validate() error {
	if r.SKU == "" {
		return ErrEmptySKU
	}

	if _, err := ParseBiome(string(r.Biome)); err != nil {
		return fmt.Errorf("species %s: %w", r.SKU, err)
	}

	if r.ThrivingSeason < Spring || r.ThrivingSeason > Winter {
		return fmt.Errorf("species %s: %w: %d", r.SKU, ErrUnknownSeason, r.ThrivingSeason)
	}

	for _, scale := range []float64{r.WaterSensitivity, r.InsecticideTolerance, r.GrowthRate} {
		if scale < 0 || scale > maxScale {
			return fmt.Errorf("species %s: %w: %v", r.SKU, ErrScaleOutOfRange, scale)
		}
	}

	if r.BasePrice < 0 {
		return fmt.Errorf("species %s: %w", r.SKU, ErrNegativePrice)
	}

	return nil
}

// Catalog maps SKUs to their shared Record. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{records: make(map[string]*Record)}
}

// Add stores the record under its SKU, replacing any previous one, and returns the shared instance.
// Plants created before a replacement keep referencing the old record.
func (c *Catalog) Add(record Record) *Record {
	shared := &record

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[record.SKU] = shared

	return shared
}

// Get returns the shared record for sku.
func (c *Catalog) Get(sku string) (*Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.records[sku]

	return record, ok
}

// Has reports whether sku is registered.
func (c *Catalog) Has(sku string) bool {
	_, ok := c.Get(sku)
	return ok
}

// Remove deletes sku and reports whether it was present.
func (c *Catalog) Remove(sku string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[sku]; !ok {
		return false
	}

	delete(c.records, sku)

	return true
}

// All returns every record sorted by SKU.
func (c *Catalog) All() []*Record {
	c.mu.RLock()
	all := make([]*Record, 0, len(c.records))
	for _, record := range c.records {
		all = append(all, record)
	}
	c.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })

	return all
}

// Len returns the number of registered species.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.records)
}
