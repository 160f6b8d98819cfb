package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshTokenUnknown: el jti nunca se emitio, ya se uso o expiro.
var ErrRefreshTokenUnknown = errors.New("refresh token unknown or already used")

// RefreshTokenStore registra los jti de refresh tokens del panel. Cada jti
// se puede consumir una sola vez; Consume es atomico para que dos refresh
// concurrentes con el mismo token no obtengan dos pares.
type RefreshTokenStore interface {
	Save(ctx context.Context, jti, subject string, ttl time.Duration) error
	// Consume borra el jti y devuelve el subject con que se emitio.
	Consume(ctx context.Context, jti string) (string, error)
}

const defaultRefreshTTL = 12 * time.Hour

type refreshEntry struct {
	subject string
	expires time.Time
}

type memoryRefreshTokenStore struct {
	mu      sync.Mutex
	entries map[string]refreshEntry
	now     func() time.Time
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{
		entries: make(map[string]refreshEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryRefreshTokenStore) Save(_ context.Context, jti, subject string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return ErrJWTInvalid
	}
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[jti] = refreshEntry{subject: subject, expires: now.Add(ttl)}
	return nil
}

func (s *memoryRefreshTokenStore) Consume(_ context.Context, jti string) (string, error) {
	jti = strings.TrimSpace(jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[jti]
	if !ok {
		return "", ErrRefreshTokenUnknown
	}
	delete(s.entries, jti)
	if !s.now().Before(e.expires) {
		return "", ErrRefreshTokenUnknown
	}
	return e.subject, nil
}

type redisRefreshClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// redisRefreshTokenStore comparte los jti entre instancias; la expiracion la
// maneja Redis con el TTL de la clave.
type redisRefreshTokenStore struct {
	client  redisRefreshClient
	prefix  string
	timeout time.Duration
}

func NewRedisRefreshTokenStore(client *redis.Client) RefreshTokenStore {
	if client == nil {
		return nil
	}
	return &redisRefreshTokenStore{
		client:  client,
		prefix:  "bigfive:refresh:",
		timeout: 500 * time.Millisecond,
	}
}

func (s *redisRefreshTokenStore) Save(ctx context.Context, jti, subject string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return ErrJWTInvalid
	}
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, subject, ttl).Err()
}

func (s *redisRefreshTokenStore) Consume(ctx context.Context, jti string) (string, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return "", ErrRefreshTokenUnknown
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	subject, err := s.client.GetDel(ctx, s.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrRefreshTokenUnknown
	}
	return subject, err
}
