package organize

import "context"

// Gate bounds the number of filesystem operations in flight across the whole
// worker pool. Workers outnumbering slots park in Acquire until a slot frees.
type Gate struct {
	slots chan struct{}
}

func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{slots: make(chan struct{}, limit)}
}

// Acquire blocks until a slot is available or the context ends.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (g *Gate) Release() {
	<-g.slots
}
