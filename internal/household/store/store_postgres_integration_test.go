//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"hearth/internal/household/models"
	"hearth/internal/household/store"
	"hearth/pkg/domain"
	"hearth/pkg/platform/sentinel"
	"hearth/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "unregistered_members", "users", "households")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) createHousehold() *models.Household {
	household := &models.Household{
		ID:          domain.NewHouseholdID(),
		Name:        "Miller family",
		OwnerID:     domain.NewUserID(),
		MemberCount: 1,
	}
	s.Require().NoError(s.store.Create(context.Background(), household))
	return household
}

// TestConcurrentAdjustMemberCount verifies the conditional UPDATE keeps the
// counter exact under parallel increments and decrements.
func (s *PostgresStoreSuite) TestConcurrentAdjustMemberCount() {
	ctx := context.Background()
	household := s.createHousehold()
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Require().NoError(s.store.AdjustMemberCount(ctx, household.ID, +1))
		}()
	}
	wg.Wait()

	stored, err := s.store.FindByID(ctx, household.ID)
	s.Require().NoError(err)
	s.Equal(1+goroutines, stored.MemberCount)
}

// TestConcurrentDecrementsNeverUnderflow verifies the counter never drops
// below one no matter how many decrements race.
func (s *PostgresStoreSuite) TestConcurrentDecrementsNeverUnderflow() {
	ctx := context.Background()
	household := s.createHousehold()

	// Five headroom members, twenty racing decrements.
	s.Require().NoError(s.store.AdjustMemberCount(ctx, household.ID, +5))

	var wg sync.WaitGroup
	var refused atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.AdjustMemberCount(ctx, household.ID, -1); err != nil {
				refused.Add(1)
			}
		}()
	}
	wg.Wait()

	stored, err := s.store.FindByID(ctx, household.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.MemberCount, "all headroom consumed, floor held")
	s.Equal(int32(15), refused.Load())
}

func (s *PostgresStoreSuite) TestAdjustMemberCountUnknownHousehold() {
	err := s.store.AdjustMemberCount(context.Background(), domain.NewHouseholdID(), +1)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreateDuplicateIsConflict() {
	household := s.createHousehold()
	err := s.store.Create(context.Background(), household)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUnregisteredLifecycle() {
	ctx := context.Background()
	household := s.createHousehold()

	member := &models.UnregisteredMember{
		ID:          domain.NewMemberID(),
		FullName:    "Grandma Ida",
		HouseholdID: household.ID,
	}
	s.Require().NoError(s.store.AddUnregistered(ctx, member))
	s.Require().NoError(s.store.UpdateUnregistered(ctx, member.ID, "Ida Miller"))

	stored, err := s.store.FindUnregistered(ctx, member.ID)
	s.Require().NoError(err)
	s.Equal("Ida Miller", stored.FullName)

	s.Require().NoError(s.store.DeleteUnregisteredByHousehold(ctx, household.ID))
	_, err = s.store.FindUnregistered(ctx, member.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
