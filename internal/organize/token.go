package organize

import "sync"

// Token is a cooperative cancellation flag shared by the coordinator and the
// worker pool. Cancel is idempotent and safe from any goroutine, including
// signal handlers.
type Token struct {
	once sync.Once
	done chan struct{}
}

func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel requests a graceful stop. Workers finish their current task and
// drain already-dispatched work; no new batches start.
func (t *Token) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Cancelled reports whether Cancel has been called.
func (t *Token) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed on cancellation, for use in select loops.
func (t *Token) Done() <-chan struct{} {
	return t.done
}
