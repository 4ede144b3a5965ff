package oracle

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

// Walk is a synthetic Source that moves each asset's price with a bounded
// random walk. It stands in for a live market data feed in local runs.
type Walk struct {
	mu     sync.RWMutex
	rng    *rand.Rand
	quotes map[string]Quote
	step   int64 // max absolute move per tick, in cents

	stopCh chan struct{}
	once   sync.Once
}

// NewWalk creates a feed seeded with starting prices per asset.
func NewWalk(start map[string]int64, step int64) *Walk {
	w := &Walk{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		quotes: make(map[string]Quote, len(start)),
		step:   step,
		stopCh: make(chan struct{}),
	}
	now := time.Now()
	for asset, price := range start {
		w.quotes[asset] = Quote{Price: price, Timestamp: now}
	}
	return w
}

// Start begins ticking prices at the given interval until Stop is called.
func (w *Walk) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.tick()
			case <-w.stopCh:
				return
			}
		}
	}()
	log.Printf("[oracle] synthetic walk started, %d assets, tick %s", len(w.quotes), interval)
}

// Stop halts the feed. Quotes stop refreshing and go stale naturally.
func (w *Walk) Stop() {
	w.once.Do(func() { close(w.stopCh) })
}

func (w *Walk) tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for asset, q := range w.quotes {
		move := w.rng.Int63n(2*w.step+1) - w.step
		price := q.Price + move
		if price < 1 {
			price = 1
		}
		w.quotes[asset] = Quote{Price: price, Timestamp: now}
	}
}

func (w *Walk) ReadPrice(asset string) (Quote, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	q, ok := w.quotes[asset]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return q, nil
}

// Quotes returns a copy of all current quotes.
func (w *Walk) Quotes() map[string]Quote {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[string]Quote, len(w.quotes))
	for asset, q := range w.quotes {
		out[asset] = q
	}
	return out
}
