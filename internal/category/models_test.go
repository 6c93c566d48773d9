package category

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
)

func validCategory() Category {
	return Category{
		ID:             domain.CategoryID(uuid.New()),
		Name:           "Scheduled service",
		ThresholdType:  threshold.ThresholdMileage,
		AppliesTo:      []AssetClass{ClassVehicle},
		Responsibility: ResponsibilityWorkshop,
		Visible:        true,
		Active:         true,
		Fields: []CompletionFieldSpec{
			{FieldName: "next_service_mileage", Label: "Next service at", ValueType: threshold.ValueMileage, Required: true},
			{FieldName: "notes", Label: "Notes", ValueType: threshold.ValueText},
		},
	}
}

func TestCategoryValidate(t *testing.T) {
	t.Run("valid category passes", func(t *testing.T) {
		require.NoError(t, validCategory().Validate())
	})

	t.Run("applies to both classes is allowed", func(t *testing.T) {
		c := validCategory()
		c.AppliesTo = []AssetClass{ClassVehicle, ClassPlant}
		require.NoError(t, c.Validate())
	})

	t.Run("empty applicability rejected", func(t *testing.T) {
		c := validCategory()
		c.AppliesTo = nil
		require.Error(t, c.Validate())
	})

	t.Run("duplicate field name rejected", func(t *testing.T) {
		c := validCategory()
		c.Fields = append(c.Fields, CompletionFieldSpec{FieldName: "notes", ValueType: threshold.ValueText})
		require.Error(t, c.Validate())
	})

	t.Run("field name over 100 characters rejected", func(t *testing.T) {
		c := validCategory()
		c.Fields[0].FieldName = strings.Repeat("x", MaxFieldNameLength+1)
		require.Error(t, c.Validate())
	})

	t.Run("legacy value type tag rejected at configuration time", func(t *testing.T) {
		c := validCategory()
		c.Fields[0].ValueType = threshold.ValueType("hours")
		require.Error(t, c.Validate())
	})
}

func TestFieldSpecLookup(t *testing.T) {
	c := validCategory()

	spec, ok := c.FieldSpec("next_service_mileage")
	require.True(t, ok)
	assert.Equal(t, threshold.ValueMileage, spec.ValueType)
	assert.True(t, spec.Required)

	_, ok = c.FieldSpec("unknown_field")
	assert.False(t, ok)
}
