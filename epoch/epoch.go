// Package epoch implements epoch-based memory reclamation for lock-free
// data structures. Readers Join the current epoch before dereferencing any
// shared node and Leave when done; writers enroll unlinked nodes with
// AddGarbage; PerformGC advances the epoch and frees garbage from epochs
// whose readers have all left.
//
// The scheme is deliberately the one used by the ordered index in this
// module: a singly linked list of epoch records, each carrying an atomic
// active-reader count and a lock-free garbage stack, with head advancing
// strictly oldest-first so a later epoch is never reclaimed ahead of an
// earlier one even if it happens to empty out first.
package epoch

import "sync/atomic"

// debugAssertions gates internal invariant checks that are bugs, not
// conditions, when tripped. Off by default.
var debugAssertions = false

// Reclaimable is enrolled for deferred reclamation once no reader that
// could have observed it remains active.
type Reclaimable interface {
	Reclaim()
}

type garbageNode struct {
	item Reclaimable
	next *garbageNode
}

type epochRecord struct {
	active  atomic.Int64
	garbage atomic.Pointer[garbageNode]
	next    atomic.Pointer[epochRecord]
}

// Token is a reader's registration in a specific epoch, returned by Join.
// It must be passed to Leave exactly once, on every exit path including
// panics.
type Token struct {
	e *epochRecord
}

// Manager owns the chain of epoch records and the garbage enrolled in each.
type Manager struct {
	head    atomic.Pointer[epochRecord]
	current atomic.Pointer[epochRecord]
}

// NewManager returns a Manager with a single active epoch and no garbage.
func NewManager() *Manager {
	e := &epochRecord{}
	m := &Manager{}
	m.head.Store(e)
	m.current.Store(e)
	return m
}

// Join registers the caller as an active reader of the current epoch. The
// returned Token must be released with Leave before it goes out of scope.
// Every operation that dereferences a node must Join on entry and Leave on
// every exit path.
func (m *Manager) Join() *Token {
	for {
		e := m.current.Load()
		if e.active.Add(1) < 0 {
			// Sentinel for "closed" (never produced by this Manager today,
			// but Leave's invariant check would have aborted first in a
			// debug build); back off and retry against whatever epoch is
			// current now.
			e.active.Add(-1)
			continue
		}
		return &Token{e: e}
	}
}

// Leave releases a reader's registration. Safe to call at most once per
// Token; a nil Token is a no-op so deferred Leave calls stay simple at call
// sites that bailed out before Join.
func (m *Manager) Leave(t *Token) {
	if t == nil || t.e == nil {
		return
	}
	n := t.e.active.Add(-1)
	if debugAssertions && n < 0 {
		panic("epoch: active reader count went negative")
	}
	t.e = nil
}

// AddGarbage enrolls item for reclamation once the current epoch, and every
// reader that joined it, has drained.
func (m *Manager) AddGarbage(item Reclaimable) {
	e := m.current.Load()
	for {
		top := e.garbage.Load()
		gn := &garbageNode{item: item, next: top}
		if e.garbage.CompareAndSwap(top, gn) {
			return
		}
	}
}

// Advance splices a fresh epoch after the current one and makes it current.
// This is the only way an epoch retires. Concurrent callers race to splice;
// the loser helps publish the winner's epoch instead of creating a second
// one.
func (m *Manager) Advance() {
	fresh := &epochRecord{}
	cur := m.current.Load()
	for {
		if cur.next.CompareAndSwap(nil, fresh) {
			m.current.CompareAndSwap(cur, fresh)
			return
		}
		next := cur.next.Load()
		if next == nil {
			// Lost a race to observe the sibling CAS land; reload and retry.
			cur = m.current.Load()
			continue
		}
		m.current.CompareAndSwap(cur, next)
		return
	}
}

// Reclaim frees garbage from every epoch strictly older than current whose
// active count has drained to zero, walking oldest-first and stopping at
// the first epoch that still has an active reader. A later epoch is never
// reclaimed ahead of an earlier one, even if it emptied out first — that
// would let a reader registered in the earlier epoch observe memory freed
// on the strength of a younger epoch's drain. Returns the number of nodes
// reclaimed.
func (m *Manager) Reclaim() int {
	reclaimed := 0
	for {
		h := m.head.Load()
		if h == m.current.Load() {
			return reclaimed
		}
		if h.active.Load() != 0 {
			return reclaimed
		}
		next := h.next.Load()
		if next == nil {
			return reclaimed
		}
		if !m.head.CompareAndSwap(h, next) {
			continue
		}
		for g := h.garbage.Load(); g != nil; g = g.next {
			g.item.Reclaim()
			reclaimed++
		}
	}
}

// PerformGC advances the epoch and reclaims everything now safe to free.
// It is the only externally driven GC cycle; callers decide the cadence.
func (m *Manager) PerformGC() int {
	m.Advance()
	return m.Reclaim()
}

// PendingCount reports how many nodes are enrolled for reclamation but not
// yet freed, across every retired-but-undrained epoch plus the current one.
func (m *Manager) PendingCount() int {
	count := 0
	for e := m.head.Load(); e != nil; e = e.next.Load() {
		for g := e.garbage.Load(); g != nil; g = g.next {
			count++
		}
		if e == m.current.Load() {
			break
		}
	}
	return count
}

// ActiveReaders reports the number of epochs currently observed to have at
// least one active reader. Diagnostic only: the count is stale the instant
// it is read under concurrent Join/Leave calls.
func (m *Manager) ActiveReaders() int {
	n := 0
	for e := m.head.Load(); e != nil; e = e.next.Load() {
		if e.active.Load() > 0 {
			n++
		}
		if e == m.current.Load() {
			break
		}
	}
	return n
}

// EpochCount reports how many epoch records currently exist between head
// and current, inclusive. Diagnostic only.
func (m *Manager) EpochCount() int {
	n := 0
	for e := m.head.Load(); e != nil; e = e.next.Load() {
		n++
		if e == m.current.Load() {
			break
		}
	}
	return n
}
