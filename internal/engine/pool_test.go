package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// gateEngine blocks each call until released, tracking peak concurrency.
type gateEngine struct {
	mu      sync.Mutex
	active  int32
	peak    int32
	release chan struct{}
}

func (g *gateEngine) Transcribe(ctx context.Context, samples []float32, languageHint string) ([]Segment, string, error) {
	cur := atomic.AddInt32(&g.active, 1)
	defer atomic.AddInt32(&g.active, -1)

	g.mu.Lock()
	if cur > g.peak {
		g.peak = cur
	}
	g.mu.Unlock()

	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
	return []Segment{{Text: "ok"}}, "en", nil
}

func TestPool_BoundsConcurrency(t *testing.T) {
	gate := &gateEngine{release: make(chan struct{})}
	pool := NewPool(gate, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := pool.Transcribe(context.Background(), []float32{0}, "")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	// Let goroutines queue up on the semaphore, then release everyone.
	time.Sleep(50 * time.Millisecond)
	close(gate.release)
	wg.Wait()

	gate.mu.Lock()
	peak := gate.peak
	gate.mu.Unlock()
	if peak > 2 {
		t.Errorf("expected at most 2 concurrent calls, saw %d", peak)
	}
}

func TestPool_CancelledWhileWaiting(t *testing.T) {
	gate := &gateEngine{release: make(chan struct{})}
	pool := NewPool(gate, 1)

	// Occupy the only slot.
	started := make(chan struct{})
	go func() {
		close(started)
		pool.Transcribe(context.Background(), []float32{0}, "")
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := pool.Transcribe(ctx, []float32{0}, "")
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	close(gate.release)
}
