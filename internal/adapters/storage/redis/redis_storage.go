// Package redis disponibiliza a implementação do storage baseada em Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

const (
	fieldCount   = "count"
	fieldResetAt = "reset_at"

	maxUpdateAttempts = 10
	// expiryGrace keeps the key slightly past the window so the lazy reset path still sees it.
	expiryGrace = time.Second
)

type Storage struct {
	client *redis.Client
	prefix string
}

var _ ports.RateLimitStore = (*Storage)(nil)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

func New(cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient reaproveita um client já configurado.
func NewWithClient(client *redis.Client, prefix string) *Storage {
	if prefix == "" {
		prefix = "ratelimit:ip:"
	}
	return &Storage{client: client, prefix: prefix}
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) key(identity string) string {
	return s.prefix + strings.ToLower(strings.TrimSpace(identity))
}

func (s *Storage) Get(ctx context.Context, identity string) (domain.RateLimitEntry, bool, error) {
	return readEntry(ctx, s.client, s.key(identity), identity)
}

func (s *Storage) Set(ctx context.Context, entry domain.RateLimitEntry) error {
	key := s.key(entry.Identity)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		writeEntry(ctx, pipe, key, entry)
		return nil
	})
	return err
}

// Update usa WATCH/MULTI; em conflito a transação é refeita com a leitura nova.
func (s *Storage) Update(ctx context.Context, identity string, fn ports.UpdateFunc) (domain.RateLimitEntry, error) {
	key := s.key(identity)
	var result domain.RateLimitEntry

	txf := func(tx *redis.Tx) error {
		current, found, err := readEntry(ctx, tx, key, identity)
		if err != nil {
			return err
		}
		next := fn(current, found)
		next.Identity = identity

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			writeEntry(ctx, pipe, key, next)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.RateLimitEntry{}, err
	}

	return domain.RateLimitEntry{}, fmt.Errorf("rate limit update for %s: too many concurrent writers", identity)
}

// hashReader is satisfied by both *redis.Client and *redis.Tx.
type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func readEntry(ctx context.Context, c hashReader, key, identity string) (domain.RateLimitEntry, bool, error) {
	values, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.RateLimitEntry{}, false, err
	}
	if len(values) == 0 {
		return domain.RateLimitEntry{}, false, nil
	}

	count, err := strconv.Atoi(values[fieldCount])
	if err != nil {
		return domain.RateLimitEntry{}, false, fmt.Errorf("invalid count for %s: %w", key, err)
	}
	resetMillis, err := strconv.ParseInt(values[fieldResetAt], 10, 64)
	if err != nil {
		return domain.RateLimitEntry{}, false, fmt.Errorf("invalid reset_at for %s: %w", key, err)
	}

	return domain.RateLimitEntry{
		Identity:      identity,
		Count:         count,
		WindowResetAt: time.UnixMilli(resetMillis),
	}, true, nil
}

func writeEntry(ctx context.Context, pipe redis.Pipeliner, key string, entry domain.RateLimitEntry) {
	pipe.HSet(ctx, key, fieldCount, entry.Count, fieldResetAt, entry.WindowResetAt.UnixMilli())
	pipe.PExpireAt(ctx, key, entry.WindowResetAt.Add(expiryGrace))
}
