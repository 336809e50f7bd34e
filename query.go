package orderedindex

// GetValue returns every live value sharing key, in level-0 order. It
// returns ErrKeyNotFound if no live node carries key at all; on a
// non-unique index with several live entries the returned slice has one
// element per entry, in whatever order the equal-key run currently holds
// them (see Insert's tie-break policy for that order's guarantee).
func (idx *OrderedIndex[K, V]) GetValue(key K) ([]V, error) {
	tok := idx.em.Join()
	defer idx.em.Leave(tok)

	var values []V
	n := idx.moveTo(key)
	for n != idx.tail && idx.keyEq(n.key, key) {
		if !n.isTombstoned() {
			values = append(values, n.value)
		}
		n = n.loadForward(0)
	}
	if values == nil {
		return nil, ErrKeyNotFound
	}
	return values, nil
}

// ConditionalFind scans every live entry sharing key, in level-0 order, and
// returns the value of the first one for which predicate reports true. The
// second return is false if key has no live entry or none satisfy predicate.
func (idx *OrderedIndex[K, V]) ConditionalFind(key K, predicate func(V) bool) (V, bool) {
	tok := idx.em.Join()
	defer idx.em.Leave(tok)

	n := idx.moveTo(key)
	for n != idx.tail && idx.keyEq(n.key, key) {
		if !n.isTombstoned() && predicate(n.value) {
			return n.value, true
		}
		n = n.loadForward(0)
	}
	var zero V
	return zero, false
}

// ConditionalInsert inserts (key, value) only if no live entry currently
// sharing key satisfies predicate. The check and the insert are not atomic:
// the check is repeated whenever the splice CAS fails, but an entry that a
// concurrent writer links in after the check and before this call's search
// for its splice point is not re-evaluated against predicate, so the new
// entry can land alongside a value predicate would have rejected.
// On a unique index it still refuses a second key outright, exactly as
// Insert does — the predicate only gates whether a non-unique index's
// duplicate-key run gets a new entry. On either mode it also refuses an
// exact (key, value) pair already held live, same as Insert, so the
// predicate can never be used to smuggle in a pair the index already
// carries. It reports whether the insert happened.
func (idx *OrderedIndex[K, V]) ConditionalInsert(key K, value V, predicate func(V) bool) (bool, error) {
	tok := idx.em.Join()
	defer idx.em.Leave(tok)

	if idx.unique {
		if idx.findExact(key) != nil {
			return false, ErrDuplicateKey
		}
		// Insert re-validates uniqueness itself against the winning
		// predecessor snapshot, so a key that lands here concurrently is
		// still refused rather than double-inserted.
		if err := idx.Insert(key, value); err != nil {
			return false, err
		}
		return true, nil
	}

	if idx.findExactValue(key, value) != nil {
		return false, nil
	}

	height := idx.rand.randomLevel(idx.maxLevel)
	newN := idx.pool.acquire(key, value, height)
	hint := shardHint(newN)

	for {
		if _, found := idx.conditionalScan(key, predicate); found {
			idx.pool.release(newN)
			return false, nil
		}

		update := idx.updateList(key)
		if update[0].isTombstoned() {
			continue
		}
		succ0 := update[0].loadForward(0)
		if succ0 != idx.tail && idx.keyEq(succ0.key, key) && !succ0.isTombstoned() &&
			idx.valEq != nil && idx.valEq(succ0.value, value) {
			idx.pool.release(newN)
			return false, nil
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
		return true, nil
	}
}

func (idx *OrderedIndex[K, V]) conditionalScan(key K, predicate func(V) bool) (V, bool) {
	n := idx.moveTo(key)
	for n != idx.tail && idx.keyEq(n.key, key) {
		if !n.isTombstoned() && predicate(n.value) {
			return n.value, true
		}
		n = n.loadForward(0)
	}
	var zero V
	return zero, false
}
