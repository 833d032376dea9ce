package indexing

import (
	"context"
	"sync"
)

// videoLocks serializes runs per video inside one process. Entries are
// dropped once nobody holds or waits on them.
type videoLocks struct {
	mu sync.Mutex
	m  map[string]*videoLock
}

type videoLock struct {
	ch   chan struct{}
	refs int
}

func (l *videoLocks) lock(ctx context.Context, videoID string) (func(), error) {
	l.mu.Lock()
	if l.m == nil {
		l.m = map[string]*videoLock{}
	}
	vl := l.m[videoID]
	if vl == nil {
		vl = &videoLock{ch: make(chan struct{}, 1)}
		l.m[videoID] = vl
	}
	vl.refs++
	l.mu.Unlock()

	select {
	case vl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-vl.ch
				l.release(videoID, vl)
			})
		}, nil
	case <-ctx.Done():
		l.release(videoID, vl)
		return nil, ctx.Err()
	}
}

func (l *videoLocks) release(videoID string, vl *videoLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vl.refs--
	if vl.refs == 0 {
		delete(l.m, videoID)
	}
}
