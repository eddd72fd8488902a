package species

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

var ErrDuplicateSKU = errors.New("duplicate species SKU")

type catalogFile struct {
	Species []recordDocument `yaml:"species"`
}

type recordDocument struct {
	SKU                  string  `yaml:"sku"`
	Name                 string  `yaml:"name"`
	Biome                string  `yaml:"biome"`
	BasePrice            float64 `yaml:"base_price"`
	WaterSensitivity     float64 `yaml:"water_sensitivity"`
	InsecticideTolerance float64 `yaml:"insecticide_tolerance"`
	GrowthRate           float64 `yaml:"growth_rate"`
	ThrivingSeason       string  `yaml:"thriving_season"`
}

func (d recordDocument) toRecord() (Record, error) {
	biome, err := ParseBiome(d.Biome)
	if err != nil {
		return Record{}, fmt.Errorf("species %s: %w", d.SKU, err)
	}

	season, err := ParseSeason(d.ThrivingSeason)
	if err != nil {
		return Record{}, fmt.Errorf("species %s: %w", d.SKU, err)
	}

	record := Record{
		SKU:                  d.SKU,
		Name:                 d.Name,
		Biome:                biome,
		BasePrice:            d.BasePrice,
		WaterSensitivity:     d.WaterSensitivity,
		InsecticideTolerance: d.InsecticideTolerance,
		GrowthRate:           d.GrowthRate,
		ThrivingSeason:       season,
	}

	return record, record.Validate()
}

// LoadCatalogYAML reads a YAML species list into a new Catalog.
func LoadCatalogYAML(r io.Reader) (*Catalog, error) {
	var file catalogFile

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse species file: %w", err)
	}

	catalog := NewCatalog()
	for _, doc := range file.Species {
		record, err := doc.toRecord()
		if err != nil {
			return nil, err
		}

		if catalog.Has(record.SKU) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, record.SKU)
		}

		catalog.Add(record)
	}

	return catalog, nil
}

// LoadCatalogFile reads a YAML species list from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open species file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadCatalogYAML(f)
}

// DefaultCatalog returns a catalog seeded with the built-in species list.
func DefaultCatalog() *Catalog {
	catalog, err := LoadCatalogYAML(bytes.NewReader(seedYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded species seed is invalid: %v", err))
	}

	return catalog
}
