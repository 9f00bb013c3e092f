package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"affirm/internal/validation/models"
	id "affirm/pkg/domain"
	"affirm/pkg/platform/sentinel"
)

const (
	resultKeyPrefix = "validation:result:"
	resultIndexKey  = "validation:index"

	// casRetries bounds optimistic-concurrency retries on Update before
	// giving up with ErrUnavailable.
	casRetries = 64
)

// Redis persists validation results as JSON values with a sorted-set index
// scored by creation time for ordered listing. Update uses WATCH so two
// checkers acting on the same result never interleave writes.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func resultKey(resultID id.ValidationID) string {
	return resultKeyPrefix + resultID.String()
}

func (s *Redis) Create(ctx context.Context, result *models.ValidationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal validation result: %w", err)
	}

	ok, err := s.client.SetNX(ctx, resultKey(result.ID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("store validation result: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return s.client.ZAdd(ctx, resultIndexKey, redis.Z{
		Score:  float64(result.CreatedAt.UnixNano()),
		Member: result.ID.String(),
	}).Err()
}

func (s *Redis) Get(ctx context.Context, resultID id.ValidationID) (*models.ValidationResult, error) {
	payload, err := s.client.Get(ctx, resultKey(resultID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load validation result: %w", err)
	}
	var result models.ValidationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode validation result: %w", err)
	}
	return &result, nil
}

func (s *Redis) Update(ctx context.Context, resultID id.ValidationID, mutate Mutator) (*models.ValidationResult, error) {
	key := resultKey(resultID)
	var updated *models.ValidationResult

	txn := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		var result models.ValidationResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return fmt.Errorf("decode validation result: %w", err)
		}
		if err := mutate(&result); err != nil {
			return err
		}
		next, err := json.Marshal(&result)
		if err != nil {
			return fmt.Errorf("marshal validation result: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &result
		return nil
	}

	for i := 0; i < casRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, sentinel.ErrUnavailable
}

func (s *Redis) List(ctx context.Context, filter Filter) ([]models.ValidationResult, error) {
	ids, err := s.client.ZRange(ctx, resultIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list validation index: %w", err)
	}
	if len(ids) == 0 {
		return []models.ValidationResult{}, nil
	}

	keys := make([]string, len(ids))
	for i, raw := range ids {
		keys[i] = resultKeyPrefix + raw
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load validation results: %w", err)
	}

	out := make([]models.ValidationResult, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry whose value expired or was deleted out of band.
			continue
		}
		var result models.ValidationResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, fmt.Errorf("decode validation result: %w", err)
		}
		if filter.matches(&result) {
			out = append(out, result)
		}
	}
	return out, nil
}
