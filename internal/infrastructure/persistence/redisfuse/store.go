// Package redisfuse guarda los contadores del fusible en Redis para que
// sobrevivan reinicios del bot.
package redisfuse

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pladderBot/internal/usecase/fuse"
)

const (
	keyPrefix = "pladder:fuse:"
	// Dos días: la clave ya no se consulta pasado su día.
	keyTTL = 48 * time.Hour
)

type Store struct {
	client redis.UniversalClient
}

var _ fuse.Store = (*Store)(nil)

func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func Dial(ctx context.Context, addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisfuse: ping %s: %w", addr, err)
	}
	return New(client), nil
}

func (s *Store) Increment(ctx context.Context, key fuse.Key) (int64, error) {
	redisKey := keyPrefix + key.String()

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redisfuse: incr %s: %w", redisKey, err)
	}
	return incr.Val(), nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
