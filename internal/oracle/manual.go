package oracle

import (
	"fmt"
	"sync"
	"time"
)

// Manual is a Source whose quotes are set by hand. It backs tests and any
// bridge that pushes prices in from an external feed.
type Manual struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewManual() *Manual {
	return &Manual{quotes: make(map[string]Quote)}
}

// SetPrice records a quote for asset observed at ts.
func (m *Manual) SetPrice(asset string, price int64, ts time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[asset] = Quote{Price: price, Timestamp: ts}
}

func (m *Manual) ReadPrice(asset string) (Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.quotes[asset]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return q, nil
}

// Quotes returns a copy of all current quotes.
func (m *Manual) Quotes() map[string]Quote {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Quote, len(m.quotes))
	for asset, q := range m.quotes {
		out[asset] = q
	}
	return out
}
