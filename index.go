// Package orderedindex implements a lock-free, multi-level ordered index:
// a concurrent skip list supporting duplicate keys, tombstone-based logical
// deletion decoupled from physical unlinking, and epoch-based reclamation
// of unlinked nodes so readers never observe a freed tower.
package orderedindex

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/quiverdb/orderedindex/epoch"
)

var (
	// ErrNilComparator is returned by New when less is nil; every operation
	// needs a total order to place nodes.
	ErrNilComparator = errors.New("orderedindex: comparator must not be nil")

	// ErrInvalidMaxLevel is returned by New when the configured MaxLevel is
	// less than 1.
	ErrInvalidMaxLevel = errors.New("orderedindex: MaxLevel must be >= 1")

	// ErrKeyNotFound is returned by GetValue when no live node matches key.
	ErrKeyNotFound = errors.New("orderedindex: key not found")

	// ErrDuplicateKey is returned by Insert on a unique index when key
	// already has a live entry.
	ErrDuplicateKey = errors.New("orderedindex: duplicate key")
)

// OrderedIndex is a concurrent, multi-level ordered index over keys K
// carrying values V. All exported methods are safe for concurrent use by
// multiple goroutines without external synchronization.
type OrderedIndex[K, V any] struct {
	head, tail *node[K, V]

	// curLevel is the tallest tower height ever linked below head, tracked
	// as a count (1 means only level 0 is meaningfully populated) so search
	// never has to walk levels known to be all head->tail. Insert raises it;
	// Delete never lowers it, so after deletes it is an upper bound rather
	// than the current height.
	curLevel atomic.Int32

	maxLevel int
	unique   bool

	less  Less[K]
	keyEq KeyEqual[K]
	valEq ValueEqual[V]

	em      *epoch.Manager
	pool    *nodePool[K, V]
	metrics *metricsCollector
	rand    *rng

	nodeSize    uintptr
	gcThreshold int
}

// New constructs an OrderedIndex ordered by less. If unique is true, Insert
// rejects a key already present; otherwise duplicate keys are permitted and
// valEq disambiguates same-key entries for Insert, Delete and
// ConditionalInsert. valEq may
// be nil for a unique index.
func New[K, V any](less Less[K], unique bool, valEq ValueEqual[V], opts ...Option) (*OrderedIndex[K, V], error) {
	if less == nil {
		return nil, ErrNilComparator
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxLevel < 1 {
		return nil, ErrInvalidMaxLevel
	}

	head, tail := newSentinels[K, V](cfg.MaxLevel)
	idx := &OrderedIndex[K, V]{
		head:        head,
		tail:        tail,
		maxLevel:    cfg.MaxLevel,
		unique:      unique,
		less:        less,
		valEq:       valEq,
		em:          epoch.NewManager(),
		pool:        newNodePool[K, V](),
		metrics:     newMetricsCollector(32),
		rand:        newRNG(newRandomSeed()),
		gcThreshold: cfg.GCThreshold,
	}
	idx.keyEq = deriveKeyEqual(less)
	idx.curLevel.Store(1)
	idx.nodeSize = estimateNodeSize[K, V]()
	return idx, nil
}

func deriveKeyEqual[K any](less Less[K]) KeyEqual[K] {
	return func(a, b K) bool { return !less(a, b) && !less(b, a) }
}

// estimateNodeSize approximates the average bytes-per-node cost used by
// MemoryFootprint: the fixed node header plus an expected 2 forward slots,
// the mean tower height of a p=0.5 geometric level distribution.
func estimateNodeSize[K, V any]() uintptr {
	const expectedForwardSlots = 2
	var slot atomic.Pointer[node[K, V]]
	return unsafe.Sizeof(node[K, V]{}) + expectedForwardSlots*unsafe.Sizeof(slot)
}

// Len returns the number of live (non-tombstoned, physically linked)
// entries. Read without synchronizing against concurrent mutation, so a
// value observed mid-mutation is a snapshot, not a guarantee.
func (idx *OrderedIndex[K, V]) Len() int {
	return idx.metrics.len()
}

// Contains reports whether any live node currently carries key.
func (idx *OrderedIndex[K, V]) Contains(key K) bool {
	tok := idx.em.Join()
	defer idx.em.Leave(tok)
	n := idx.findExact(key)
	return n != nil
}

// PerformGC advances the reclamation epoch and frees every unlinked node
// whose epoch has fully drained of readers. Safe to call at any time,
// including from multiple goroutines concurrently; each call does an
// independent unit of work.
func (idx *OrderedIndex[K, V]) PerformGC() int {
	return idx.em.PerformGC()
}

// NeedsGC reports whether the count of nodes unlinked but not yet reclaimed
// has reached the index's GCThreshold, as a hint for callers driving their
// own GC cadence.
func (idx *OrderedIndex[K, V]) NeedsGC() bool {
	return idx.em.PendingCount() >= idx.gcThreshold
}

// MemoryFootprint approximates the heap held by this index's nodes, in
// bytes: the average per-node cost estimated at construction times the
// count of both live nodes and nodes unlinked but still awaiting epoch
// reclamation, since the latter are real allocations no reader has
// finished dropping yet.
func (idx *OrderedIndex[K, V]) MemoryFootprint() uintptr {
	return uintptr(idx.Len()+idx.em.PendingCount()) * idx.nodeSize
}

// InsertStats reports CAS retry/success counters accumulated across every
// Insert call made against this index.
func (idx *OrderedIndex[K, V]) InsertStats() InsertStats {
	return idx.metrics.insertStats()
}

// Close runs GC cycles until no node is pending reclamation or a cycle frees
// nothing. It honors active readers like PerformGC does: garbage in an epoch
// that a reader still pins, or in any later epoch, stays pending. Call it
// once no goroutine holds a reference into the index, typically at
// shutdown, so that everything drains.
func (idx *OrderedIndex[K, V]) Close() {
	for idx.em.PendingCount() > 0 {
		if idx.em.PerformGC() == 0 {
			break
		}
	}
}
