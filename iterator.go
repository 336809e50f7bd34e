package orderedindex

import "github.com/quiverdb/orderedindex/epoch"

// ForwardIterator walks entries in ascending key order starting from
// wherever it was positioned by Begin or BeginAt. It skips no nodes:
// tombstoned entries are still visible, since a tombstone only marks a
// node logically deleted, and callers that care filter them out themselves
// via Value's companion state. It holds an epoch token for its entire
// lifetime, so nodes it has not yet passed cannot be reclaimed out from
// under it; callers must call Close when done with it, including on early
// exits, or the epoch it pinned never drains.
type ForwardIterator[K, V any] struct {
	idx *OrderedIndex[K, V]
	tok *epoch.Token
	cur *node[K, V]
}

// Begin returns an iterator positioned at the first entry, tombstoned or
// not, at the head of the level-0 chain.
func (idx *OrderedIndex[K, V]) Begin() *ForwardIterator[K, V] {
	return &ForwardIterator[K, V]{idx: idx, tok: idx.em.Join(), cur: idx.head.loadForward(0)}
}

// BeginAt returns an iterator positioned at the first entry whose key is
// not less than key, tombstoned or not.
func (idx *OrderedIndex[K, V]) BeginAt(key K) *ForwardIterator[K, V] {
	it := &ForwardIterator[K, V]{idx: idx, tok: idx.em.Join()}
	it.cur = idx.moveTo(key)
	return it
}

// IsEnd reports whether the iterator has advanced past the last entry.
func (it *ForwardIterator[K, V]) IsEnd() bool {
	return it.cur == it.idx.tail
}

// Key returns the current entry's key. When IsEnd is true it returns the
// tail sentinel's key field, the zero value of K.
func (it *ForwardIterator[K, V]) Key() K {
	return it.cur.key
}

// Value returns the current entry's value.
func (it *ForwardIterator[K, V]) Value() V {
	return it.cur.value
}

// Tombstoned reports whether the current entry has been logically deleted.
// It is still reachable by the iterator until its unlink completes.
func (it *ForwardIterator[K, V]) Tombstoned() bool {
	return it.cur.isTombstoned()
}

// Advance moves to the next entry, or to the end sentinel if none remain.
func (it *ForwardIterator[K, V]) Advance() {
	if it.cur == it.idx.tail {
		return
	}
	it.cur = it.cur.loadForward(0)
}

// Compare reports the sign of comparing this iterator's current position
// against other's: negative if less, zero if equivalent under the index's
// ordering, positive if greater. An iterator at end sorts after every live
// position and equal to another iterator at end, regardless of key — end
// iterators never compare their (zero-valued) key fields. Both iterators
// must belong to the same index.
func (it *ForwardIterator[K, V]) Compare(other *ForwardIterator[K, V]) int {
	itEnd, otherEnd := it.IsEnd(), other.IsEnd()
	if itEnd && otherEnd {
		return 0
	}
	if itEnd {
		return 1
	}
	if otherEnd {
		return -1
	}
	if it.idx.less(it.cur.key, other.cur.key) {
		return -1
	}
	if it.idx.less(other.cur.key, it.cur.key) {
		return 1
	}
	return 0
}

// Close releases the epoch token this iterator holds. Safe to call more
// than once.
func (it *ForwardIterator[K, V]) Close() {
	if it.tok == nil {
		return
	}
	it.idx.em.Leave(it.tok)
	it.tok = nil
}
