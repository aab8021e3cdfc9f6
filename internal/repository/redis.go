package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
)

const marketKeyPrefix = "settler:market:"

// RedisStore persists one JSON snapshot per market key. Single-key SET is
// atomic on the server; the engine's per-market serialization means no two
// writers ever race on the same key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Create(ctx context.Context, st *ledger.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, marketKeyPrefix+st.Market.ID, payload, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Newf(apperrors.ErrInvalidRequest, "market %s already exists", st.Market.ID)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*ledger.State, error) {
	payload, err := s.client.Get(ctx, marketKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "market %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	var st ledger.State
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *RedisStore) Commit(ctx context.Context, st *ledger.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	// SET XX: replace only, a commit never resurrects a deleted market.
	ok, err := s.client.SetXX(ctx, marketKeyPrefix+st.Market.ID, payload, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Newf(apperrors.ErrNotFound, "market %s not found", st.Market.ID)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*ledger.State, error) {
	var out []*ledger.State
	iter := s.client.Scan(ctx, 0, marketKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var st ledger.State
		if err := json.Unmarshal(payload, &st); err != nil {
			return nil, err
		}
		out = append(out, &st)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
