package orderedindex

import "unsafe"

func shardHint[K, V any](n *node[K, V]) uint64 {
	return uint64(uintptr(unsafe.Pointer(n)))
}

// Insert adds (key, value). On a unique index it returns ErrDuplicateKey if
// a live entry for key already exists. On a non-unique index it succeeds
// unless a live entry already carries the exact same (key, value) pair, in
// which case it also returns ErrDuplicateKey — (key, value) pairs stay
// unique in either mode, only bare keys are allowed to repeat. Otherwise it
// splices the new node immediately ahead of the first existing node whose
// key is not less than key, so among equal keys the newest entry comes
// first.
func (idx *OrderedIndex[K, V]) Insert(key K, value V) error {
	tok := idx.em.Join()
	defer idx.em.Leave(tok)

	if idx.unique {
		if idx.findExact(key) != nil {
			return ErrDuplicateKey
		}
	} else if idx.findExactValue(key, value) != nil {
		return ErrDuplicateKey
	}

	height := idx.rand.randomLevel(idx.maxLevel)
	newN := idx.pool.acquire(key, value, height)
	hint := shardHint(newN)

	for {
		update := idx.updateList(key)

		succ0 := update[0].loadForward(0)
		if succ0 != idx.tail && idx.keyEq(succ0.key, key) && !succ0.isTombstoned() {
			if idx.unique {
				idx.pool.release(newN)
				return ErrDuplicateKey
			}
			if idx.valEq != nil && idx.valEq(succ0.value, value) {
				idx.pool.release(newN)
				return ErrDuplicateKey
			}
		}

		if update[0].isTombstoned() {
			// A concurrent Delete tombstoned our predecessor after
			// updateList's back-off already ran; restart the whole search
			// rather than splice behind a node about to be unlinked.
			continue
		}

		newN.storeForward(0, succ0)
		if !update[0].casForward(0, succ0, newN) {
			idx.metrics.incInsertRetry(hint)
			continue
		}
		idx.metrics.incInsertSuccess(hint)
		idx.insertUpperLevels(newN, key, height)
		idx.bumpCurLevel(height)
		idx.metrics.addLen(hint, 1)
		return nil
	}
}

// insertUpperLevels splices newN into levels [1, height) after level 0 has
// already been linked. Each level is linked independently and retries
// against a fresh predecessor search on CAS failure; a reader can observe
// newN at level 0 before it appears at higher levels, which is safe since
// every read starts its descent from level 0's superset, never the reverse.
// A predecessor found tombstoned causes a re-search rather than a CAS
// attempt against it, the same rule the bottom-level splice follows.
func (idx *OrderedIndex[K, V]) insertUpperLevels(newN *node[K, V], key K, height int) {
	for level := 1; level < height; level++ {
		for {
			update := idx.updateList(key)
			pred := update[level]
			if pred.isTombstoned() {
				continue
			}
			succ := pred.loadForward(level)
			newN.storeForward(level, succ)
			if pred.casForward(level, succ, newN) {
				break
			}
		}
	}
}

func (idx *OrderedIndex[K, V]) bumpCurLevel(height int) {
	for {
		cur := idx.curLevel.Load()
		if int(cur) >= height {
			return
		}
		if idx.curLevel.CompareAndSwap(cur, int32(height)) {
			return
		}
	}
}

// Delete logically removes the live entry matching key (and, on a
// non-unique index, value) then unlinks it from every level it appears on.
// Logical removal is a single atomic tombstone flip: only the caller that
// wins it proceeds to unlink and enroll the node for reclamation, so
// concurrent Delete calls racing for the same entry never double-free it.
func (idx *OrderedIndex[K, V]) Delete(key K, value V) error {
	tok := idx.em.Join()
	defer idx.em.Leave(tok)

	var target *node[K, V]
	if idx.unique {
		target = idx.findExact(key)
	} else {
		target = idx.findExactValue(key, value)
	}
	if target == nil {
		return ErrKeyNotFound
	}
	if !target.markTombstoned() {
		return ErrKeyNotFound
	}

	idx.metrics.addLen(shardHint(target), -1)
	idx.unlink(target)
	return nil
}

// unlink physically removes an already-tombstoned node from every level it
// participates in, top-down, then enrolls it for epoch-deferred reclamation.
// Each level's predecessor is re-resolved by identity on every retry so a
// concurrent insert or delete splicing near target cannot make the CAS spin
// forever or unlink the wrong node.
func (idx *OrderedIndex[K, V]) unlink(target *node[K, V]) {
	assertInvariant(target.isTombstoned(), "unlink called on a live node")

	for level := target.height() - 1; level >= 0; level-- {
		for {
			pred := idx.predAtLevel(target, level)
			if pred == nil {
				break
			}
			next := target.loadForward(level)
			if pred.casForward(level, target, next) {
				break
			}
		}
	}
	idx.em.AddGarbage(nodeReclaimer[K, V]{n: target, pool: idx.pool})
}
