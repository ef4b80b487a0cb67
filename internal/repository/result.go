package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

var ErrResultNotFound = errors.New("result not found")

type ResultRepository interface {
	Save(ctx context.Context, result *entity.Result) error
	GetByID(ctx context.Context, id string) (*entity.Result, error)
}

type dbResult struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultRepository - stores results with the given expiration. Zero ttl keeps them forever.
func NewResultRepository(client *redis.Client, ttl time.Duration) ResultRepository {
	return &dbResult{
		client: client,
		ttl:    ttl,
	}
}

func resultKey(id string) string {
	return "result:" + id
}

func (that *dbResult) Save(ctx context.Context, result *entity.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	if err = that.client.Set(ctx, resultKey(result.ID), resultJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set result: %w", err)
	}

	return nil
}

func (that *dbResult) GetByID(ctx context.Context, id string) (*entity.Result, error) {
	response, err := that.client.Get(ctx, resultKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: id %s", ErrResultNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get result by id: %w", err)
	}

	var result entity.Result
	if err = json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}
