package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

func TestBuildFarmTestData(t *testing.T) {
	farm := BuildFarmTestData()

	assert.Equal(t, 2020, farm.Clock.EndDate().Year())
	for _, name := range []string{"Hay", "Grain", "Manure", "GHG", "Bank", "Labour"} {
		pool, err := farm.Registry.Resolve(name, entities.ReportErrorAndStopOnMissing)
		require.NoError(t, err, name)
		assert.NotNil(t, pool, name)
	}

	forSale := true
	sale := farm.Herd.Find(repositories.HerdFilter{Herd: "Cattle", ForSale: &forSale})
	heads := 0
	for _, c := range sale {
		heads += c.Number
	}
	assert.Equal(t, 34, heads)
}

func TestBuildSimpleTestData(t *testing.T) {
	farm := BuildSimpleTestData()

	hay, err := farm.Registry.Resolve("Hay", entities.ReportErrorAndStopOnMissing)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, hay.Amount())
	assert.Len(t, farm.Herd.Find(repositories.HerdFilter{Herd: "Cattle"}), 1)
}
