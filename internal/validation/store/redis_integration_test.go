//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"affirm/internal/validation/models"
	"affirm/internal/validation/store"
	id "affirm/pkg/domain"
	"affirm/pkg/platform/sentinel"
	"affirm/pkg/testutil/containers"
)

type RedisValidationStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisValidationStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisValidationStoreSuite))
}

func (s *RedisValidationStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisValidationStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Client.FlushAll(context.Background()).Err())
}

func (s *RedisValidationStoreSuite) newResult(status models.Status) *models.ValidationResult {
	return &models.ValidationResult{
		ID:              id.NewValidationID(),
		DocumentID:      id.NewDocumentID(),
		SystemTradeID:   "TRS-001",
		Status:          status,
		CheckerDecision: models.CheckerPending,
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (s *RedisValidationStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	result := s.newResult(models.StatusMatch)

	s.Require().NoError(s.store.Create(ctx, result))

	got, err := s.store.Get(ctx, result.ID)
	s.Require().NoError(err)
	s.Equal(result.ID, got.ID)
	s.Equal(models.StatusMatch, got.Status)
}

func (s *RedisValidationStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	result := s.newResult(models.StatusMatch)

	s.Require().NoError(s.store.Create(ctx, result))
	s.ErrorIs(s.store.Create(ctx, result), sentinel.ErrConflict)
}

func (s *RedisValidationStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), id.NewValidationID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisValidationStoreSuite) TestUpdateIsAtomicUnderContention() {
	ctx := context.Background()
	result := s.newResult(models.StatusPartial)
	s.Require().NoError(s.store.Create(ctx, result))

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Update(ctx, result.ID, func(r *models.ValidationResult) error {
				r.Warnings = append(r.Warnings, "touched")
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	stored, err := s.store.Get(ctx, result.ID)
	s.Require().NoError(err)
	s.Len(stored.Warnings, writers)
}

func (s *RedisValidationStoreSuite) TestListOrdering() {
	ctx := context.Background()

	first := s.newResult(models.StatusMatch)
	second := s.newResult(models.StatusPartial)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.Create(ctx, first))

	all, err := s.store.List(ctx, store.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(first.ID, all[0].ID)
	s.Equal(second.ID, all[1].ID)

	partial, err := s.store.List(ctx, store.Filter{Status: models.StatusPartial})
	s.Require().NoError(err)
	s.Require().Len(partial, 1)
	s.Equal(second.ID, partial[0].ID)
}
