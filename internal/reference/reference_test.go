package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksef-kenya/judging-api/internal/models"
)

func TestCriteriaTotals(t *testing.T) {
	assert.Len(t, PartACriteria, 15)
	assert.Len(t, PartBCriteria, 10)
	assert.Len(t, PartCCriteria, 15)

	assert.Equal(t, 30.0, MaxTotal(PartACriteria))
	assert.Equal(t, 15.0, MaxTotal(PartBCriteria))
	assert.Equal(t, 35.0, MaxTotal(PartCCriteria))
}

func TestSectionCriteria(t *testing.T) {
	assert.Equal(t, 30.0, MaxTotal(SectionCriteria(models.SectionA)))
	assert.Equal(t, 50.0, MaxTotal(SectionCriteria(models.SectionBC)))
	assert.Nil(t, SectionCriteria(models.Section("X")))
}

func TestCriterionSteps(t *testing.T) {
	for _, criterion := range SectionCriteria(models.SectionBC) {
		assert.Contains(t, []float64{0.5, 1}, criterion.Step, "criterion %s", criterion.ID)
		assert.Greater(t, criterion.MaxScore, 0.0)
	}
}

func TestGeographyLookups(t *testing.T) {
	assert.Len(t, RegionNames(), 8)

	region, ok := FindRegion("Central")
	require.True(t, ok)
	assert.Equal(t, "Central", region.Name)

	assert.Contains(t, CountiesOf("Central"), "Kiambu")
	assert.Contains(t, SubCountiesOf("Kiambu"), "Kikuyu")

	assert.True(t, ValidLocation("Central", "Kiambu", "Kikuyu"))
	assert.True(t, ValidLocation("Central", "Kiambu", ""))
	assert.False(t, ValidLocation("Central", "Mombasa", ""))
	assert.False(t, ValidLocation("Atlantis", "", ""))
}

func TestSchoolMappingsConsistent(t *testing.T) {
	for _, mapping := range SchoolMappings {
		assert.True(t, ValidLocation(mapping.Region, mapping.County, mapping.SubCounty),
			"school %s maps to unknown location", mapping.School)
	}

	mapping, ok := FindSchoolMapping("Alliance High School")
	require.True(t, ok)
	assert.Equal(t, "Kiambu", mapping.County)

	_, ok = FindSchoolMapping("Unknown School")
	assert.False(t, ok)
}

func TestCategories(t *testing.T) {
	assert.Len(t, Categories, 13)
	assert.True(t, ValidCategory("Physics"))
	assert.False(t, ValidCategory("Alchemy"))
}
