package utils

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("[octo] feed/drain queue is closed")
var ErrOverflow = errors.New("[octo] feed/drain queue is overflowed")

// Queue is a bounded in-memory record queue: Drain appends without
// blocking, Feed blocks until there is something to read. Once it
// overflows it stays broken, so a slow reader is cut off instead of
// stalling the writers.
type Queue[T ~[][]byte] struct {
	lock       sync.Mutex
	data       T
	size       int
	limit      int
	overflowed bool
	closed     bool
	signal     chan struct{}
}

// NewQueue makes a queue holding at most limit bytes of records.
func NewQueue[T ~[][]byte](limit int) *Queue[T] {
	return &Queue[T]{
		limit:  limit,
		signal: make(chan struct{}, 1),
	}
}

func (q *Queue[T]) Size() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.size
}

func (q *Queue[T]) Close() error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if !q.closed {
		q.closed = true
		q.data = nil
		q.size = 0
		close(q.signal)
	}
	return nil
}

func (q *Queue[T]) Drain(ctx context.Context, recs T) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return ErrClosed
	}
	if q.overflowed {
		return ErrOverflow
	}
	size := 0
	for _, rec := range recs {
		size += len(rec)
	}
	if q.size+size > q.limit {
		q.overflowed = true
		return ErrOverflow
	}
	q.data = append(q.data, recs...)
	q.size += size
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// Feed takes everything queued, waiting for at least one record.
func (q *Queue[T]) Feed(ctx context.Context) (recs T, err error) {
	for {
		q.lock.Lock()
		if q.closed {
			q.lock.Unlock()
			return nil, ErrClosed
		}
		if len(q.data) > 0 {
			recs, q.data, q.size = q.data, nil, 0
			q.lock.Unlock()
			return recs, nil
		}
		if q.overflowed {
			q.lock.Unlock()
			return nil, ErrOverflow
		}
		q.lock.Unlock()
		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
