package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/pkg/domain"
	dErrors "hearth/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	t.Run("round trips a generated id", func(t *testing.T) {
		id := domain.NewUserID()
		parsed, err := domain.ParseUserID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := domain.ParseUserID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := domain.ParseUserID("not-a-uuid")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects the nil uuid", func(t *testing.T) {
		_, err := domain.ParseUserID("00000000-0000-0000-0000-000000000000")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestHouseholdID(t *testing.T) {
	t.Run("generated codes are eight characters from the alphabet", func(t *testing.T) {
		seen := make(map[domain.HouseholdID]struct{})
		for range 100 {
			id := domain.NewHouseholdID()
			assert.Len(t, id.String(), 8)
			_, err := domain.ParseHouseholdID(id.String())
			assert.NoError(t, err)
			seen[id] = struct{}{}
		}
		assert.Greater(t, len(seen), 90, "codes are effectively unique")
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := domain.ParseHouseholdID("ABC")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects lowercase and symbols", func(t *testing.T) {
		_, err := domain.ParseHouseholdID("abcd1234")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestIsZero(t *testing.T) {
	assert.True(t, domain.UserID{}.IsZero())
	assert.False(t, domain.NewUserID().IsZero())
	assert.True(t, domain.HouseholdID("").IsZero())
	assert.False(t, domain.NewHouseholdID().IsZero())
}
