package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/household/models"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
)

func newHousehold() *models.Household {
	return &models.Household{
		ID:          domain.NewHouseholdID(),
		Name:        "Miller family",
		OwnerID:     domain.NewUserID(),
		MemberCount: 1,
	}
}

func TestMemoryStore_AdjustMemberCount(t *testing.T) {
	ctx := context.Background()

	t.Run("applies positive and negative deltas", func(t *testing.T) {
		s := NewMemory()
		household := newHousehold()
		require.NoError(t, s.Create(ctx, household))

		require.NoError(t, s.AdjustMemberCount(ctx, household.ID, +2))
		require.NoError(t, s.AdjustMemberCount(ctx, household.ID, -1))

		stored, err := s.FindByID(ctx, household.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.MemberCount)
	})

	t.Run("refuses to drop below one", func(t *testing.T) {
		s := NewMemory()
		household := newHousehold()
		require.NoError(t, s.Create(ctx, household))

		err := s.AdjustMemberCount(ctx, household.ID, -1)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)

		stored, findErr := s.FindByID(ctx, household.ID)
		require.NoError(t, findErr)
		assert.Equal(t, 1, stored.MemberCount, "refused adjustment leaves the counter untouched")
	})

	t.Run("unknown household", func(t *testing.T) {
		s := NewMemory()
		err := s.AdjustMemberCount(ctx, domain.NewHouseholdID(), +1)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("concurrent increments all land", func(t *testing.T) {
		s := NewMemory()
		household := newHousehold()
		require.NoError(t, s.Create(ctx, household))

		const increments = 100
		var wg sync.WaitGroup
		for range increments {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.AdjustMemberCount(ctx, household.ID, +1)
			}()
		}
		wg.Wait()

		stored, err := s.FindByID(ctx, household.ID)
		require.NoError(t, err)
		assert.Equal(t, 1+increments, stored.MemberCount)
	})
}

func TestMemoryStore_Households(t *testing.T) {
	ctx := context.Background()

	t.Run("create rejects duplicate id", func(t *testing.T) {
		s := NewMemory()
		household := newHousehold()
		require.NoError(t, s.Create(ctx, household))
		assert.ErrorIs(t, s.Create(ctx, household), sentinel.ErrConflict)
	})

	t.Run("update owner", func(t *testing.T) {
		s := NewMemory()
		household := newHousehold()
		require.NoError(t, s.Create(ctx, household))

		newOwner := domain.NewUserID()
		require.NoError(t, s.UpdateOwner(ctx, household.ID, newOwner))

		stored, err := s.FindByID(ctx, household.ID)
		require.NoError(t, err)
		assert.Equal(t, newOwner, stored.OwnerID)
	})

	t.Run("delete removes the household", func(t *testing.T) {
		s := NewMemory()
		household := newHousehold()
		require.NoError(t, s.Create(ctx, household))
		require.NoError(t, s.Delete(ctx, household.ID))

		_, err := s.FindByID(ctx, household.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestMemoryStore_Unregistered(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*MemoryStore, *models.Household) {
		t.Helper()
		s := NewMemory()
		household := newHousehold()
		require.NoError(t, s.Create(ctx, household))
		return s, household
	}

	t.Run("add requires an existing household", func(t *testing.T) {
		s := NewMemory()
		member := &models.UnregisteredMember{
			ID:          domain.NewMemberID(),
			FullName:    "Grandma Ida",
			HouseholdID: domain.NewHouseholdID(),
		}
		assert.ErrorIs(t, s.AddUnregistered(ctx, member), sentinel.ErrNotFound)
	})

	t.Run("add, rename, list, delete", func(t *testing.T) {
		s, household := setup(t)
		member := &models.UnregisteredMember{
			ID:          domain.NewMemberID(),
			FullName:    "Grandma Ida",
			HouseholdID: household.ID,
		}
		require.NoError(t, s.AddUnregistered(ctx, member))
		require.NoError(t, s.UpdateUnregistered(ctx, member.ID, "Ida Miller"))

		stored, err := s.FindUnregistered(ctx, member.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ida Miller", stored.FullName)

		members, err := s.ListUnregistered(ctx, household.ID)
		require.NoError(t, err)
		assert.Len(t, members, 1)

		require.NoError(t, s.DeleteUnregistered(ctx, member.ID))
		_, err = s.FindUnregistered(ctx, member.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete by household clears only that household", func(t *testing.T) {
		s, household := setup(t)
		other := newHousehold()
		require.NoError(t, s.Create(ctx, other))

		mine := &models.UnregisteredMember{ID: domain.NewMemberID(), FullName: "A", HouseholdID: household.ID}
		theirs := &models.UnregisteredMember{ID: domain.NewMemberID(), FullName: "B", HouseholdID: other.ID}
		require.NoError(t, s.AddUnregistered(ctx, mine))
		require.NoError(t, s.AddUnregistered(ctx, theirs))

		require.NoError(t, s.DeleteUnregisteredByHousehold(ctx, household.ID))

		_, err := s.FindUnregistered(ctx, mine.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FindUnregistered(ctx, theirs.ID)
		assert.NoError(t, err)
	})
}
