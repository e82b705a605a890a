package security

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNonceNotFound is returned when a nonce was never issued, expired or was used
var ErrNonceNotFound = errors.New("nonce not found or expired")

// NonceStore keeps single-use login nonces per wallet
type NonceStore interface {
	Save(ctx context.Context, wallet, nonce string, ttl time.Duration) error
	// Consume returns the nonce and deletes it
	Consume(ctx context.Context, wallet string) (string, error)
}

// RedisNonceStore keeps nonces in Redis with a TTL
type RedisNonceStore struct {
	client *redis.Client
}

// NewRedisNonceStore creates a Redis backed nonce store
func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

func nonceKey(wallet string) string {
	return "auth_nonce:" + strings.ToLower(wallet)
}

// Save stores the nonce, replacing any earlier one
func (s *RedisNonceStore) Save(ctx context.Context, wallet, nonce string, ttl time.Duration) error {
	return s.client.Set(ctx, nonceKey(wallet), nonce, ttl).Err()
}

// Consume atomically reads and deletes the nonce
func (s *RedisNonceStore) Consume(ctx context.Context, wallet string) (string, error) {
	nonce, err := s.client.GetDel(ctx, nonceKey(wallet)).Result()
	if err == redis.Nil {
		return "", ErrNonceNotFound
	}
	if err != nil {
		return "", err
	}
	return nonce, nil
}

type memoryNonce struct {
	value     string
	expiresAt time.Time
}

// MemoryNonceStore is used when Redis is unavailable. Nonces do not survive
// a restart and are not shared between instances.
type MemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[string]memoryNonce
	now    func() time.Time
}

// NewMemoryNonceStore creates an in-process nonce store
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		nonces: make(map[string]memoryNonce),
		now:    time.Now,
	}
}

// Save stores the nonce, replacing any earlier one, and drops expired entries
func (s *MemoryNonceStore) Save(_ context.Context, wallet, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.nonces {
		if now.After(v.expiresAt) {
			delete(s.nonces, k)
		}
	}

	s.nonces[nonceKey(wallet)] = memoryNonce{value: nonce, expiresAt: now.Add(ttl)}
	return nil
}

// Consume reads and deletes the nonce
func (s *MemoryNonceStore) Consume(_ context.Context, wallet string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nonceKey(wallet)
	n, ok := s.nonces[key]
	if !ok {
		return "", ErrNonceNotFound
	}
	delete(s.nonces, key)

	if s.now().After(n.expiresAt) {
		return "", ErrNonceNotFound
	}
	return n.value, nil
}
