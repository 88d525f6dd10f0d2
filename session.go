package mindmap2pdf

import (
	"context"
	"errors"
	"sync"
)

// pageSession is one tab exclusively owned by a job.
// release must run on every exit path; it is safe to call more than once.
type pageSession struct {
	tab     tab
	browser browser
	pool    *SessionPool

	broken bool // set by the owning job; forces the browser to be discarded

	once sync.Once
	err  error
}

// openSession acquires a browser from the pool and opens a fresh tab on it.
func openSession(ctx context.Context, pool *SessionPool) (*pageSession, error) {
	b, err := pool.acquire(ctx)
	if err != nil {
		return nil, err
	}

	t, err := b.OpenTab(ctx)
	if err != nil {
		// A browser that cannot open tabs is not worth keeping.
		_ = pool.discard(b)
		if !errors.Is(err, ErrSessionLaunch) {
			err = errors.Join(ErrSessionLaunch, err)
		}
		return nil, err
	}

	return &pageSession{tab: t, browser: b, pool: pool}, nil
}

// markBroken flags the session so release tears the browser down.
func (s *pageSession) markBroken() {
	s.broken = true
}

// release closes the tab and hands the browser back, or kills it if the
// session is broken or the tab would not close.
func (s *pageSession) release() error {
	s.once.Do(func() {
		closeErr := s.tab.Close()
		if closeErr != nil || s.broken {
			s.err = errors.Join(closeErr, s.pool.discard(s.browser))
			return
		}
		s.pool.release(s.browser)
	})
	return s.err
}
