package databases

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/streamroom/streamroom-api/config"
)

// ChatStore is the key/list/set storage consumed by the history log, the
// moderation queue, the ban/filter store and user preferences. The Redis
// implementation is the production backend; tests use the in-memory one.
//
// AppendTrim and RemoveValue must be atomic: two concurrent AppendTrim calls
// may not interleave so that the trim drops an entry that was never appended,
// and two RemoveValue calls for the same value must not both report a removal.
type ChatStore interface {
	AppendTrim(ctx context.Context, key, value string, cap int64) error
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	Length(ctx context.Context, key string) (int64, error)
	RemoveValue(ctx context.Context, key, value string) (int64, error)
	AddMember(ctx context.Context, key, member string) error
	IsMember(ctx context.Context, key, member string) (bool, error)
	Members(ctx context.Context, key string) ([]string, error)
	ReplaceMembers(ctx context.Context, key string, members []string) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisClient parses the configured Redis URL and returns a client
func NewRedisClient(conf *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(conf.RedisUrl)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// NewRedisStore wraps a Redis client in the ChatStore interface
func NewRedisStore(client *redis.Client) ChatStore {
	return &redisStore{client: client}
}

func (s *redisStore) AppendTrim(ctx context.Context, key, value string, cap int64) error {
	// RPUSH and LTRIM run in one MULTI/EXEC so the trim always observes the
	// append it belongs to.
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, value)
	pipe.LTrim(ctx, key, -cap, -1)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return s.client.LRange(ctx, key, start, stop).Result()
}

func (s *redisStore) Length(ctx context.Context, key string) (int64, error) {
	return s.client.LLen(ctx, key).Result()
}

func (s *redisStore) RemoveValue(ctx context.Context, key, value string) (int64, error) {
	return s.client.LRem(ctx, key, 1, value).Result()
}

func (s *redisStore) AddMember(ctx context.Context, key, member string) error {
	return s.client.SAdd(ctx, key, member).Err()
}

func (s *redisStore) IsMember(ctx context.Context, key, member string) (bool, error) {
	return s.client.SIsMember(ctx, key, member).Result()
}

func (s *redisStore) Members(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *redisStore) ReplaceMembers(ctx context.Context, key string, members []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		args := make([]interface{}, len(members))
		for i, m := range members {
			args[i] = m
		}
		pipe.SAdd(ctx, key, args...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}
