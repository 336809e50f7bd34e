package orderedindex

import (
	"sync"

	"github.com/quiverdb/orderedindex/epoch"
)

// nodePool recycles node towers by height so a hot insert/delete cycle
// doesn't churn the allocator. Each height gets its own sync.Pool because
// forward slices of different lengths are not interchangeable.
type nodePool[K, V any] struct {
	mu    sync.Mutex
	byLen map[int]*sync.Pool
}

func newNodePool[K, V any]() *nodePool[K, V] {
	return &nodePool[K, V]{byLen: make(map[int]*sync.Pool)}
}

func (p *nodePool[K, V]) poolFor(height int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl, ok := p.byLen[height]
	if !ok {
		pl = &sync.Pool{}
		p.byLen[height] = pl
	}
	return pl
}

func (p *nodePool[K, V]) acquire(key K, value V, height int) *node[K, V] {
	if v := p.poolFor(height).Get(); v != nil {
		n := v.(*node[K, V])
		n.key = key
		n.value = value
		n.tombstone.Store(false)
		for i := range n.forward {
			n.forward[i].Store(nil)
		}
		return n
	}
	return newNode[K, V](key, value, height)
}

func (p *nodePool[K, V]) release(n *node[K, V]) {
	p.poolFor(n.height()).Put(n)
}

// nodeReclaimer adapts a node for epoch-deferred reclamation: Reclaim
// returns the node to its pool only once the epoch manager has confirmed no
// reader can still be holding a reference to it.
type nodeReclaimer[K, V any] struct {
	n    *node[K, V]
	pool *nodePool[K, V]
}

var _ epoch.Reclaimable = nodeReclaimer[int, int]{}

func (r nodeReclaimer[K, V]) Reclaim() {
	r.pool.release(r.n)
}
