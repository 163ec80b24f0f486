// Package cache stores detection results keyed by input text so that
// repeated texts skip extraction.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coolbeans/lawlinks/pkg/citation"
)

// ErrMiss is returned when no result is cached for a key.
var ErrMiss = errors.New("cache miss")

// Cache stores link results.
type Cache interface {
	Get(ctx context.Context, key string) ([]citation.Link, error)
	Set(ctx context.Context, key string, links []citation.Link) error
	Close() error
}

// Key derives the cache key of text for one index generation. Results of an
// older index never match a key of a newer one.
func Key(generation uint64, text string) string {
	sum := sha256.Sum256([]byte(text))
	return strconv.FormatUint(generation, 10) + ":" + hex.EncodeToString(sum[:])
}

// entry is the stored form of a link. Unlike the wire form it keeps the
// source span.
type entry struct {
	LawID    int    `json:"l"`
	Article  string `json:"a,omitempty"`
	Point    string `json:"p,omitempty"`
	Subpoint string `json:"s,omitempty"`
	Offset   int    `json:"o"`
	Length   int    `json:"n"`
}

func encode(links []citation.Link) ([]byte, error) {
	entries := make([]entry, len(links))
	for i, l := range links {
		entries[i] = entry{l.LawID, l.Article, l.PointArticle, l.SubpointArticle, l.TextOffset, l.TextLength}
	}
	return json.Marshal(entries)
}

func decode(data []byte) ([]citation.Link, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	links := make([]citation.Link, len(entries))
	for i, e := range entries {
		links[i] = citation.Link{
			LawID:           e.LawID,
			Article:         e.Article,
			PointArticle:    e.Point,
			SubpointArticle: e.Subpoint,
			TextOffset:      e.Offset,
			TextLength:      e.Length,
		}
	}
	return links, nil
}

// RedisConfig configures a Redis-backed cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// RedisCache stores results in Redis with a fixed TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached links for key or ErrMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]citation.Link, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	links, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding cached links: %w", err)
	}
	return links, nil
}

// Set stores links under key.
func (c *RedisCache) Set(ctx context.Context, key string, links []citation.Link) error {
	data, err := encode(links)
	if err != nil {
		return fmt.Errorf("encoding links: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]citation.Link, error) { return nil, ErrMiss }
func (nopCache) Set(context.Context, string, []citation.Link) error   { return nil }
func (nopCache) Close() error                                         { return nil }

// NewNop returns a cache that stores nothing.
func NewNop() Cache { return nopCache{} }
