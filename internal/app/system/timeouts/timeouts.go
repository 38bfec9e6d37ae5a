// Package timeouts holds the context deadlines used around store calls.
//
// Handlers and services wrap every Mongo, Redis or NATS call in one of these
// so a slow backend cannot pin a request goroutine. Values are set once at
// startup with Configure and read through the getters.
//
// Which one to pick:
//   - Ping: health checks
//   - Short: single-document reads and lookups
//   - Long: aggregate writes, forks and anything spanning collections
//   - Lock: how long a mutation waits for the per-collaboration lock
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing  = 2 * time.Second
	DefaultShort = 5 * time.Second
	DefaultLong  = 20 * time.Second
	DefaultLock  = 3 * time.Second
)

var (
	mu    sync.RWMutex
	ping  = DefaultPing
	short = DefaultShort
	long  = DefaultLong
	lock  = DefaultLock
)

func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

func Lock() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return lock
}

// Config holds timeout overrides. Zero values keep the current value.
type Config struct {
	Ping  time.Duration
	Short time.Duration
	Long  time.Duration
	Lock  time.Duration
}

// Configure applies cfg. Call during startup, before handlers are built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
	if cfg.Lock > 0 {
		lock = cfg.Lock
	}
}

// Reset restores the defaults. Tests use it.
func Reset() {
	Configure(Config{Ping: DefaultPing, Short: DefaultShort, Long: DefaultLong, Lock: DefaultLock})
}

// Current returns the active configuration, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Long: long, Lock: lock}
}

// WithTimeout is context.WithTimeout whose cancel func logs when the deadline
// was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "fork collaboration")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
