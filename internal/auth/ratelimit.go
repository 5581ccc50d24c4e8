package auth

import (
	"sync"
	"time"

	"github.com/mrlokans/librarian/internal/config"
)

// RateLimiter counts failed credential checks per IP+username and locks
// the pair out once the limit is reached inside the window.
type RateLimiter struct {
	mu       sync.Mutex
	failures map[string]*failureRecord

	maxAttempts int
	window      time.Duration
	lockout     time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type failureRecord struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

// NewRateLimiter builds a limiter from the auth configuration. Zero values
// fall back to 5 attempts per 15 minutes and a 30 minute lockout.
func NewRateLimiter(cfg config.Auth) *RateLimiter {
	rl := &RateLimiter{
		failures:    make(map[string]*failureRecord),
		maxAttempts: cfg.MaxLoginAttempts,
		window:      cfg.RateLimitWindow,
		lockout:     cfg.LockoutDuration,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	if rl.maxAttempts <= 0 {
		rl.maxAttempts = 5
	}
	if rl.window <= 0 {
		rl.window = 15 * time.Minute
	}
	if rl.lockout <= 0 {
		rl.lockout = 30 * time.Minute
	}
	return rl
}

// Start prunes expired records every interval until Stop is called.
func (rl *RateLimiter) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.prune()
			case <-rl.stop:
				return
			}
		}
	}()
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Allow reports whether another attempt may be made and, if not, how long
// the caller has to wait.
func (rl *RateLimiter) Allow(ip, username string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, ok := rl.failures[key(ip, username)]
	if !ok {
		return true, 0
	}

	now := rl.now()
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	return true, 0
}

// RecordFailure counts a failed attempt and reports whether it triggered
// a lockout.
func (rl *RateLimiter) RecordFailure(ip, username string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	k := key(ip, username)
	record, ok := rl.failures[k]
	if !ok || now.Sub(record.windowStart) > rl.window {
		record = &failureRecord{windowStart: now}
		rl.failures[k] = record
	}

	record.count++
	if record.count >= rl.maxAttempts {
		record.lockedUntil = now.Add(rl.lockout)
		return true, rl.lockout
	}
	return false, 0
}

// RecordSuccess forgets earlier failures of the pair.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.failures, key(ip, username))
	rl.mu.Unlock()
}

func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, record := range rl.failures {
		if now.Sub(record.windowStart) > rl.window && !now.Before(record.lockedUntil) {
			delete(rl.failures, k)
		}
	}
}

func key(ip, username string) string {
	return ip + ":" + username
}
