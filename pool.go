package mindmap2pdf

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// SessionPool manages up to Size browsers for concurrent exports.
// Each concurrent job owns one browser while it runs.
// Browsers are launched lazily on first acquire to avoid startup delay.
type SessionPool struct {
	size  int
	slots chan struct{} // one token per job holding a browser
	newFn func(ctx context.Context) (browser, error)

	mu     sync.Mutex
	idle   []browser
	live   map[browser]struct{}
	closed bool
}

// PoolStats is a point-in-time view of a SessionPool.
type PoolStats struct {
	Size   int  `json:"size"`
	Live   int  `json:"live"`
	Idle   int  `json:"idle"`
	InUse  int  `json:"inUse"`
	Closed bool `json:"closed"`
}

// NewSessionPool creates a pool with capacity for n browsers launched from cfg.
// Browsers are launched when acquired, not at pool creation.
func NewSessionPool(n int, cfg BrowserConfig) *SessionPool {
	return newSessionPool(n, func(ctx context.Context) (browser, error) {
		return launchBrowser(ctx, cfg)
	})
}

func newSessionPool(n int, newFn func(ctx context.Context) (browser, error)) *SessionPool {
	if n < 1 {
		n = 1
	}
	return &SessionPool{
		size:  n,
		slots: make(chan struct{}, n),
		newFn: newFn,
		idle:  make([]browser, 0, n),
		live:  make(map[browser]struct{}, n),
	}
}

// acquire takes a free browser, launching one if needed.
// Blocks until a slot frees up or ctx is done.
func (p *SessionPool) acquire(ctx context.Context) (browser, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		b := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return b, nil
	}
	p.mu.Unlock()

	// Launch outside the lock
	b, err := p.newFn(ctx)
	if err != nil {
		<-p.slots
		if !errors.Is(err, ErrSessionLaunch) {
			err = errors.Join(ErrSessionLaunch, err)
		}
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = b.Close()
		<-p.slots
		return nil, ErrPoolClosed
	}
	p.live[b] = struct{}{}
	p.mu.Unlock()
	return b, nil
}

// release returns a healthy browser to the pool.
// After Close, the browser is shut down instead.
func (p *SessionPool) release(b browser) {
	p.mu.Lock()
	if p.closed {
		delete(p.live, b)
		p.mu.Unlock()
		_ = b.Close()
		<-p.slots
		return
	}
	p.idle = append(p.idle, b)
	p.mu.Unlock()
	<-p.slots
}

// discard shuts a browser down and frees its slot. Used when the browser
// may be wedged (timeout, cancellation, failed tab close).
func (p *SessionPool) discard(b browser) error {
	p.mu.Lock()
	delete(p.live, b)
	p.mu.Unlock()

	err := b.Close()
	<-p.slots
	return err
}

// Close shuts down idle browsers. Browsers still in use are shut down
// when their job releases them.
// Returns an aggregated error if multiple browsers fail to close.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	for _, b := range idle {
		delete(p.live, b)
	}
	p.mu.Unlock()

	var errs []error
	for _, b := range idle {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *SessionPool) Size() int {
	return p.size
}

// Stats reports how many browsers are running and how many are busy.
func (p *SessionPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Size:   p.size,
		Live:   len(p.live),
		Idle:   len(p.idle),
		InUse:  len(p.slots),
		Closed: p.closed,
	}
}

// ResolvePoolSize determines the optimal pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
