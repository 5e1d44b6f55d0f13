// Package redis is a platform backed by Redis Search. Documents are stored
// as hashes, one FT index per platform index, with a sorted set of ids for
// range listing.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/platform"
)

// Compile-time check: Store implements platform.Client.
var _ platform.Client = (*Store)(nil)

// DefaultKeyPrefix namespaces every key the store writes.
const DefaultKeyPrefix = "docsearch:"

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements platform.Client via rueidis for Redis 8+.
type Store struct {
	client rueidis.Client
	prefix string
	logger *zap.Logger

	mu    sync.RWMutex
	types map[string]map[string]platform.FieldType
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg.KeyPrefix, opts...), nil
}

func newStore(c rueidis.Client, prefix string, opts ...Option) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	s := &Store{
		client: c,
		prefix: prefix,
		logger: zap.NewNop(),
		types:  map[string]map[string]platform.FieldType{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for redis: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// Key layout. Document hashes share a per-index prefix so FT.CREATE can pick
// them up; metadata lives outside that prefix.

func (s *Store) ftIndex(index string) string    { return s.prefix + "idx:" + index }
func (s *Store) docPrefix(index string) string  { return s.prefix + "doc:" + index + ":" }
func (s *Store) docKey(index, id string) string { return s.docPrefix(index) + id }
func (s *Store) metaKey(index string) string    { return s.prefix + "meta:" + index }
func (s *Store) idsKey(index string) string     { return s.prefix + "ids:" + index }

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
