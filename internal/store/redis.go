package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/config"
	"github.com/stemsi/exstem-quiz-client/internal/model"
)

// RedisStore keeps each session's answers as a JSON string value.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisStore creates a RedisStore. A zero ttl keeps keys forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "redis_store").Logger(),
	}
}

func (s *RedisStore) Load(ctx context.Context, session string) (model.AnswerMap, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}

	data, err := s.rdb.Get(ctx, config.StorageKey.Answers(session)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.AnswerMap{}, nil
		}
		return nil, fmt.Errorf("get answers: %w", err)
	}
	return model.DecodeAnswerMap(data), nil
}

func (s *RedisStore) Save(ctx context.Context, session string, answers model.AnswerMap) error {
	if err := validateSession(session); err != nil {
		return err
	}

	data, err := answers.Encode()
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	if err := s.rdb.Set(ctx, config.StorageKey.Answers(session), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set answers: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, session string) error {
	if err := validateSession(session); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, config.StorageKey.Answers(session)).Err(); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	s.log.Debug().Str("session", session).Msg("Answers cleared")
	return nil
}
