package reporter

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
)

// Sighting describes how long an opportunity has been visible
type Sighting struct {
	FirstSeen uint64 // first cycle of the current streak
	LastSeen  uint64
	Streak    int // consecutive cycles, including LastSeen
}

// New reports whether the opportunity appeared this cycle
func (s Sighting) New() bool {
	return s.Streak == 1
}

// Tracker remembers recently reported opportunities, keyed by token and pools
type Tracker struct {
	cache *lru.Cache
	mu    sync.Mutex
}

func NewTracker(size int) (*Tracker, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker cache: %w", err)
	}
	return &Tracker{cache: cache}, nil
}

// Key identifies an opportunity by token, buy pool and sell pool
func Key(opp *arbitrage.Opportunity) uint64 {
	d := xxhash.New()
	_, _ = d.Write(opp.Token.Bytes())
	_, _ = d.Write(opp.BuyFrom.Address().Bytes())
	_, _ = d.Write(opp.SellTo.Address().Bytes())
	return d.Sum64()
}

// Observe records opp as seen in cycle. A gap of one or more cycles starts a
// new streak.
func (t *Tracker) Observe(cycle uint64, opp *arbitrage.Opportunity) Sighting {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := Key(opp)
	s := Sighting{FirstSeen: cycle, LastSeen: cycle, Streak: 1}
	if v, ok := t.cache.Get(key); ok {
		prev := v.(Sighting)
		switch {
		case prev.LastSeen == cycle:
			return prev
		case prev.LastSeen+1 == cycle:
			s = Sighting{FirstSeen: prev.FirstSeen, LastSeen: cycle, Streak: prev.Streak + 1}
		}
	}
	t.cache.Add(key, s)
	return s
}

func (t *Tracker) Len() int {
	return t.cache.Len()
}
