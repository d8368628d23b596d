package supervisor

import (
	"sort"
	"sync"

	"github.com/hupe1980/schedmesh/core"
)

type bandSlots struct {
	total int
	used  int
}

// GlobalResourceManager tracks slot capacity per band.
type GlobalResourceManager struct {
	mu    sync.Mutex
	bands map[core.Band]*bandSlots
}

// NewGlobalResourceManager returns a manager without bands.
func NewGlobalResourceManager() *GlobalResourceManager {
	return &GlobalResourceManager{bands: make(map[core.Band]*bandSlots)}
}

// AddBand registers (or resizes) a band with the given slot count.
func (g *GlobalResourceManager) AddBand(band core.Band, slots int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if bs, ok := g.bands[band]; ok {
		bs.total = slots
		return
	}
	g.bands[band] = &bandSlots{total: slots}
}

// Bands returns the registered bands in a stable order.
func (g *GlobalResourceManager) Bands() []core.Band {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sortedLocked()
}

func (g *GlobalResourceManager) sortedLocked() []core.Band {
	out := make([]core.Band, 0, len(g.bands))
	for b := range g.bands {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Allocate takes one slot from the first band with free capacity.
func (g *GlobalResourceManager) Allocate() (core.Band, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range g.sortedLocked() {
		bs := g.bands[b]
		if bs.used < bs.total {
			bs.used++
			return b, true
		}
	}
	return core.Band{}, false
}

// Release returns one slot of band.
func (g *GlobalResourceManager) Release(band core.Band) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if bs, ok := g.bands[band]; ok && bs.used > 0 {
		bs.used--
	}
}

// Free returns the number of unused slots across all bands.
func (g *GlobalResourceManager) Free() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	free := 0
	for _, bs := range g.bands {
		free += bs.total - bs.used
	}
	return free
}
