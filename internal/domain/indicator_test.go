package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	assert.Len(t, catalog, 20)

	t.Run("codes are unique", func(t *testing.T) {
		seen := make(map[string]bool, len(catalog))
		for _, ind := range catalog {
			assert.False(t, seen[ind.Code], "duplicate code %s", ind.Code)
			seen[ind.Code] = true
		}
	})

	t.Run("every domain is represented", func(t *testing.T) {
		covered := make(map[Domain]bool)
		for _, ind := range catalog {
			covered[ind.Domain] = true
		}
		for _, d := range Domains() {
			assert.True(t, covered[d], "domain %s has no indicators", d)
		}
	})

	t.Run("road density and wealth are reversed", func(t *testing.T) {
		var reversed []string
		for _, ind := range catalog {
			if ind.Reversed {
				reversed = append(reversed, ind.Code)
			}
		}
		assert.ElementsMatch(t, []string{"RD_DENSUNREV", "USAIDWEALTH"}, reversed)
	})
}

func TestIndicatorByCode(t *testing.T) {
	ind, ok := IndicatorByCode("IPC_AVC")
	require.True(t, ok)
	assert.Equal(t, DomainFoodSecurity, ind.Domain)
	assert.False(t, ind.Reversed)

	_, ok = IndicatorByCode("NOPE")
	assert.False(t, ok)
}

func TestKnownRegion(t *testing.T) {
	for _, r := range StudyRegions {
		assert.True(t, KnownRegion(r))
	}
	assert.False(t, KnownRegion("Analamanga"))
}
