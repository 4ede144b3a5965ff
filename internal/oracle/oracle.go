package oracle

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrStalePrice   = errors.New("stale oracle price")
)

// Quote is a point-in-time price observation for a single asset.
type Quote struct {
	Price     int64     `json:"price"` // in cents per unit
	Timestamp time.Time `json:"timestamp"`
}

// Source is the read contract of an external price feed. Implementations
// must be safe for concurrent use.
type Source interface {
	ReadPrice(asset string) (Quote, error)
}

// Fresh reports whether a quote taken at ts is still usable at now.
// A quote exactly at the threshold age is considered fresh.
func Fresh(ts, now time.Time, maxAge time.Duration) bool {
	return now.Sub(ts) <= maxAge
}

// Adapter wraps a Source with a freshness threshold. Pricing a trade or a
// settlement on outdated market data is the failure mode this system most
// needs to avoid, so staleness is a hard error, never a retry.
type Adapter struct {
	src    Source
	maxAge time.Duration
	now    func() time.Time
}

// NewAdapter creates an adapter enforcing maxAge on every read. A nil
// clock defaults to time.Now.
func NewAdapter(src Source, maxAge time.Duration, clock func() time.Time) *Adapter {
	if clock == nil {
		clock = time.Now
	}
	return &Adapter{src: src, maxAge: maxAge, now: clock}
}

// FreshPrice reads the current price for asset and fails with
// ErrStalePrice if the quote is older than the configured threshold.
func (a *Adapter) FreshPrice(asset string) (int64, error) {
	q, err := a.src.ReadPrice(asset)
	if err != nil {
		return 0, err
	}
	if now := a.now(); !Fresh(q.Timestamp, now, a.maxAge) {
		return 0, fmt.Errorf("%w: %s quote is %s old (max %s)",
			ErrStalePrice, asset, now.Sub(q.Timestamp), a.maxAge)
	}
	return q.Price, nil
}
