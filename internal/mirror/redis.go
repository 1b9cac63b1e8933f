package mirror

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	userKeyPrefix   = "mirror:user:"
	skillsKeyPrefix = "mirror:skills:"
	staleKeyPrefix  = "mirror:stale:"
)

// RedisStore implements Store on Redis. Users are JSON strings, skills live in
// a per-user hash with one field per skill id.
type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: rdb}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) PutUser(ctx context.Context, row UserRow) error {
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode user row: %w", err)
	}
	return s.client.Set(ctx, userKeyPrefix+row.UID, b, 0).Err()
}

func (s *RedisStore) GetUser(ctx context.Context, uid string) (*UserRow, error) {
	val, err := s.client.Get(ctx, userKeyPrefix+uid).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var row UserRow
	if err := json.Unmarshal([]byte(val), &row); err != nil {
		return nil, fmt.Errorf("failed to decode user row: %w", err)
	}
	return &row, nil
}

func (s *RedisStore) DeleteUser(ctx context.Context, uid string) error {
	return s.client.Del(ctx, userKeyPrefix+uid).Err()
}

func (s *RedisStore) PutSkill(ctx context.Context, row SkillRow) error {
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode skill row: %w", err)
	}
	return s.client.HSet(ctx, skillsKeyPrefix+row.UserID, row.ID, b).Err()
}

func (s *RedisStore) DeleteSkill(ctx context.Context, uid, skillID string) error {
	return s.client.HDel(ctx, skillsKeyPrefix+uid, skillID).Err()
}

func (s *RedisStore) ListSkills(ctx context.Context, uid, skillType string) ([]SkillRow, error) {
	vals, err := s.client.HGetAll(ctx, skillsKeyPrefix+uid).Result()
	if err != nil {
		return nil, err
	}

	rows := make([]SkillRow, 0, len(vals))
	for _, v := range vals {
		var row SkillRow
		if err := json.Unmarshal([]byte(v), &row); err != nil {
			continue
		}
		if skillType != "" && row.Type != skillType {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *RedisStore) DeleteAllForUser(ctx context.Context, uid string) error {
	return s.client.Del(ctx,
		userKeyPrefix+uid,
		skillsKeyPrefix+uid,
		staleKeyPrefix+uid,
	).Err()
}

func (s *RedisStore) SetStale(ctx context.Context, uid string, stale bool) error {
	if !stale {
		return s.client.Del(ctx, staleKeyPrefix+uid).Err()
	}
	return s.client.Set(ctx, staleKeyPrefix+uid, "1", 0).Err()
}

func (s *RedisStore) Stale(ctx context.Context, uid string) (bool, error) {
	_, err := s.client.Get(ctx, staleKeyPrefix+uid).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
