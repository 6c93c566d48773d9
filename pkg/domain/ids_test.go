package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fleetworks/pkg/domain-errors"
)

// Typed IDs enforce an invariant at trust boundaries: valid, non-nil UUIDs
// only, and no cross-type assignment.
func TestParseAssetID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAssetID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAssetID(uuid.Nil.String())
		require.Error(t, err)
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseAssetID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, AssetID(valid), id)
	})
}

func TestParseVRM(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    VRM
		wantErr bool
	}{
		{"uppercases", "ab12 cde", "AB12CDE", false},
		{"strips interior whitespace", " L N 6 4 C X Z ", "LN64CXZ", false},
		{"plant asset with dash", "plant-042", "PLANT-042", false},
		{"empty after trim", "   ", "", true},
		{"punctuation rejected", "AB12;DROP", "", true},
		{"too long", "ABCDEFGHIJKLMNOP", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVRM(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActorRoundTrip(t *testing.T) {
	t.Run("system actor", func(t *testing.T) {
		a := SystemActor("mot-sync")
		assert.Equal(t, "system:mot-sync", a.String())
		assert.Equal(t, a, ParseActor(a.String()))
	})

	t.Run("user actor", func(t *testing.T) {
		a := UserActor("c1a6b6d2")
		assert.Equal(t, a, ParseActor(a.String()))
	})

	t.Run("legacy unprefixed value becomes user actor", func(t *testing.T) {
		a := ParseActor("old-import")
		assert.Equal(t, ActorUser, a.Kind)
		assert.Equal(t, "old-import", a.Name)
	})
}
