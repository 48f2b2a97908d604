package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"almacenpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ventana tracks requests from one IP within a fixed window.
type ventana struct {
	count     int
	windowEnd time.Time
}

// Limiter is a per-IP fixed-window rate limiter. Each instance keeps its own
// counters, so the login limiter and the API limiter never share state.
type Limiter struct {
	limit   int
	window  time.Duration
	mensaje string
	now     func() time.Time

	mu  sync.Mutex
	ips map[string]*ventana
}

func NewLimiter(limit int, window time.Duration, mensaje string) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		mensaje: mensaje,
		now:     time.Now,
		ips:     make(map[string]*ventana),
	}
}

// permitir records one hit for ip and reports whether it is within limit,
// plus the end of the current window.
func (l *Limiter) permitir(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.ips[ip]
	if !ok || now.After(v.windowEnd) {
		v = &ventana{windowEnd: now.Add(l.window)}
		l.ips[ip] = v
	}
	v.count++
	return v.count <= l.limit, v.windowEnd
}

func (l *Limiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, fin := l.permitir(c.ClientIP())
		if !ok {
			c.Header("Retry-After", fin.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.mensaje))
			return
		}
		c.Next()
	}
}

// Purge removes expired windows and returns how many were dropped.
func (l *Limiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for ip, v := range l.ips {
		if now.After(v.windowEnd) {
			delete(l.ips, ip)
			n++
		}
	}
	return n
}

// RunPurge calls Purge every interval until ctx is done.
func (l *Limiter) RunPurge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Purge(); n > 0 {
				log.Debug().Int("purged", n).Msg("rate limiter entries purged")
			}
		}
	}
}

// NewLoginLimiter allows 20 login attempts per minute per IP.
func NewLoginLimiter() *Limiter {
	return NewLimiter(20, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.")
}

// NewAPILimiter is the general limiter for authenticated routes.
func NewAPILimiter(limit int, window time.Duration) *Limiter {
	return NewLimiter(limit, window, "Demasiadas solicitudes. Intente nuevamente en un momento.")
}
