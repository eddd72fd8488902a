package species_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/plant-nursery-go/species"
)

func fern() species.Record {
	return species.Record{
		SKU:                  "FERN-01",
		Name:                 "Boston Fern",
		Biome:                species.Indoor,
		BasePrice:            12,
		WaterSensitivity:     1,
		InsecticideTolerance: 0.8,
		GrowthRate:           0.7,
		ThrivingSeason:       species.Spring,
	}
}

func Test_Catalog_Get_ReturnsSharedInstance(t *testing.T) {
	// arrange
	catalog := species.NewCatalog()
	added := catalog.Add(fern())

	// act
	first, ok1 := catalog.Get("FERN-01")
	second, ok2 := catalog.Get("FERN-01")

	// assert
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Same(t, added, first)
	assert.Same(t, first, second)
}

func Test_Catalog_Get_MissingSKUIsAbsent(t *testing.T) {
	catalog := species.NewCatalog()

	record, ok := catalog.Get("NOPE")

	assert.False(t, ok)
	assert.Nil(t, record)
	assert.False(t, catalog.Has("NOPE"))
}

func Test_Catalog_AddOverwritesAndRemove(t *testing.T) {
	// arrange
	catalog := species.NewCatalog()
	original := catalog.Add(fern())
	updated := fern()
	updated.BasePrice = 15

	// act
	replacement := catalog.Add(updated)

	// assert
	got, _ := catalog.Get("FERN-01")
	assert.Same(t, replacement, got)
	assert.InDelta(t, 12.0, original.BasePrice, 0.0001, "earlier references keep the old record")
	assert.Equal(t, 1, catalog.Len())
	assert.True(t, catalog.Remove("FERN-01"))
	assert.False(t, catalog.Remove("FERN-01"))
	assert.Empty(t, catalog.All())
}

func Test_Catalog_All_SortedBySKU(t *testing.T) {
	catalog := species.NewCatalog()
	for _, sku := range []string{"ZZ", "AA", "MM"} {
		r := fern()
		r.SKU = sku
		catalog.Add(r)
	}

	all := catalog.All()

	require.Len(t, all, 3)
	assert.Equal(t, "AA", all[0].SKU)
	assert.Equal(t, "MM", all[1].SKU)
	assert.Equal(t, "ZZ", all[2].SKU)
}

func Test_Catalog_ConcurrentAccess(t *testing.T) {
	catalog := species.NewCatalog()
	catalog.Add(fern())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = catalog.Get("FERN-01")
				catalog.Add(fern())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, catalog.Len())
}

func Test_Record_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*species.Record)
		err    error
	}{
		{name: "empty sku", mutate: func(r *species.Record) { r.SKU = "" }, err: species.ErrEmptySKU},
		{name: "unknown biome", mutate: func(r *species.Record) { r.Biome = "tundra" }, err: species.ErrUnknownBiome},
		{name: "scale too large", mutate: func(r *species.Record) { r.GrowthRate = 2.5 }, err: species.ErrScaleOutOfRange},
		{name: "negative price", mutate: func(r *species.Record) { r.BasePrice = -1 }, err: species.ErrNegativePrice},
		{name: "bad season", mutate: func(r *species.Record) { r.ThrivingSeason = 9 }, err: species.ErrUnknownSeason},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := fern()
			tc.mutate(&record)

			assert.ErrorIs(t, record.Validate(), tc.err)
		})
	}
}

func Test_LoadCatalogYAML_ParsesRecords(t *testing.T) {
	// arrange
	input := `
species:
  - sku: CACT-01
    name: Barrel Cactus
    biome: Desert
    base_price: 14.5
    water_sensitivity: 1.6
    insecticide_tolerance: 1.2
    growth_rate: 1.8
    thriving_season: fall
`

	// act
	catalog, err := species.LoadCatalogYAML(strings.NewReader(input))

	// assert
	require.NoError(t, err)
	record, ok := catalog.Get("CACT-01")
	require.True(t, ok)
	assert.Equal(t, species.Desert, record.Biome)
	assert.Equal(t, species.Autumn, record.ThrivingSeason)
	assert.InDelta(t, 1.6, record.WaterSensitivity, 0.0001)
}

func Test_LoadCatalogYAML_RejectsInvalidInput(t *testing.T) {
	testCases := map[string]string{
		"duplicate sku": "species:\n  - {sku: A, biome: desert, thriving_season: summer}\n  - {sku: A, biome: desert, thriving_season: summer}\n",
		"unknown biome": "species:\n  - {sku: A, biome: arctic, thriving_season: summer}\n",
		"unknown field": "species:\n  - {sku: A, biome: desert, thriving_season: summer, colour: red}\n",
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := species.LoadCatalogYAML(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func Test_DefaultCatalog_CoversEveryBiome(t *testing.T) {
	catalog := species.DefaultCatalog()

	seen := map[species.Biome]bool{}
	for _, record := range catalog.All() {
		require.NoError(t, record.Validate())
		seen[record.Biome] = true
	}

	for _, biome := range species.Biomes() {
		assert.True(t, seen[biome], "missing biome %s", biome)
	}
}

func Test_SeasonOf(t *testing.T) {
	assert.Equal(t, species.Winter, species.SeasonOf(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, species.Spring, species.SeasonOf(time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, species.Summer, species.SeasonOf(time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, species.Autumn, species.SeasonOf(time.Date(2024, time.October, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, species.Winter, species.SeasonOf(time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC)))
}
