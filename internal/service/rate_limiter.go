package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// Decision es la respuesta del limiter para una solicitud.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter solo se informa cuando Allowed es false.
	RetryAfter time.Duration
}

// RetryAfterSeconds redondea hacia arriba, minimo 1, para el header Retry-After.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 1
	}
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// RateLimiter limita envios por clave (IP del cliente). Hay una
// implementacion en memoria por proceso y otra compartida sobre Redis.
type RateLimiter interface {
	Allow(ctx context.Context, key string) Decision
}

// RateLimitError lleva la espera sugerida; errors.Is(err, ErrRateLimited) es true.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

func normalizeLimitKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

type memoryRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
	now    func() time.Time

	lastSweep time.Time
}

// NewMemoryRateLimiter usa ventana deslizante. Solo sirve con una instancia.
func NewMemoryRateLimiter(window time.Duration, max int) RateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *memoryRateLimiter) Allow(_ context.Context, key string) Decision {
	key = normalizeLimitKey(key)
	if key == "" {
		return Decision{RetryAfter: l.window}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.hits, key)
	}
	l.sweep(cutoff)
	if len(kept) >= l.max {
		l.hits[key] = kept
		// El hit mas viejo es el primero en salir de la ventana.
		return Decision{RetryAfter: kept[0].Add(l.window).Sub(now)}
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return Decision{Allowed: true, Remaining: l.max - len(kept)}
}

// sweep borra claves cuyo ultimo hit ya salio de la ventana. Corre como
// maximo una vez por ventana.
func (l *memoryRateLimiter) sweep(cutoff time.Time) {
	if l.lastSweep.After(cutoff) {
		return
	}
	for key, hits := range l.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.hits, key)
		}
	}
	l.lastSweep = cutoff.Add(l.window)
}
