package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetworks/internal/category"
)

func TestRouter(t *testing.T) {
	r, err := New(
		[]string{"fleet-admin@example.com", "compliance@example.com"},
		[]string{"workshop-lead@example.com"},
	)
	require.NoError(t, err)

	t.Run("office category routes to office recipients", func(t *testing.T) {
		route := r.Resolve(&category.Category{Responsibility: category.ResponsibilityOffice})
		assert.Equal(t, category.ResponsibilityOffice, route.Responsibility)
		assert.Equal(t, []string{"compliance@example.com", "fleet-admin@example.com"}, route.Recipients)
	})

	t.Run("workshop category routes to workshop recipients", func(t *testing.T) {
		route := r.Resolve(&category.Category{Responsibility: category.ResponsibilityWorkshop})
		assert.Equal(t, category.ResponsibilityWorkshop, route.Responsibility)
		assert.Equal(t, []string{"workshop-lead@example.com"}, route.Recipients)
	})

	t.Run("recipient lists are cleaned", func(t *testing.T) {
		r, err := New([]string{" Fleet-Admin@example.com ", "fleet-admin@example.com", ""}, nil)
		require.NoError(t, err)
		route := r.Resolve(&category.Category{Responsibility: category.ResponsibilityOffice})
		assert.Equal(t, []string{"fleet-admin@example.com"}, route.Recipients)
	})

	t.Run("empty configuration rejected", func(t *testing.T) {
		_, err := New(nil, nil)
		assert.Error(t, err)
	})
}
