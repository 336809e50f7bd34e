package orderedindex

// updateList returns, for every level from the index's current height down
// to 0, the last node whose key sorts strictly before key. update[0].forward
// points at the first node whose key is >= key (moveTo's target), and the
// full array is what Insert splices a new tower's forward pointers against.
//
// If the node the descent would otherwise record as a level's predecessor
// is tombstoned, the predecessor recorded instead is the most recent live
// node seen anywhere in the search so far (a one-step back-off) — head
// itself is never tombstoned, so there is always a live fallback. This
// keeps every returned predecessor splice-safe; the caller still needs to
// recheck it hasn't been tombstoned by a racing Delete between this search
// and the CAS it drives.
func (idx *OrderedIndex[K, V]) updateList(key K) []*node[K, V] {
	update := make([]*node[K, V], idx.maxLevel)
	x := idx.head
	lastLive := idx.head
	top := int(idx.curLevel.Load())
	for level := top - 1; level >= 0; level-- {
		for {
			next := x.loadForward(level)
			if next == idx.tail || !idx.less(next.key, key) {
				break
			}
			x = next
			if !x.isTombstoned() {
				lastLive = x
			}
		}
		if x.isTombstoned() {
			update[level] = lastLive
		} else {
			update[level] = x
		}
	}
	for level := top; level < idx.maxLevel; level++ {
		update[level] = idx.head
	}
	return update
}

// moveTo returns the first node, live or tombstoned, whose key is not
// strictly less than key — the level-0 insertion/search point for key.
func (idx *OrderedIndex[K, V]) moveTo(key K) *node[K, V] {
	update := idx.updateList(key)
	n := update[0].loadForward(0)
	// After a back-off, update[0] can sit before nodes that still sort below
	// key; walk level 0 past them.
	for n != idx.tail && idx.less(n.key, key) {
		n = n.loadForward(0)
	}
	return n
}

// findExact returns a live node matching key, skipping over tombstoned
// duplicates, or nil if none is found. On a non-unique index with several
// live nodes sharing key, it returns whichever one moveTo's run first
// reaches; callers needing a specific value use findExactValue.
func (idx *OrderedIndex[K, V]) findExact(key K) *node[K, V] {
	n := idx.moveTo(key)
	for n != idx.tail && idx.keyEq(n.key, key) {
		if !n.isTombstoned() {
			return n
		}
		n = n.loadForward(0)
	}
	return nil
}

// findExactValue returns the live node matching both key and value under
// valEq, or nil. Used when duplicate keys are permitted and a caller must
// disambiguate which of several same-key entries it means.
func (idx *OrderedIndex[K, V]) findExactValue(key K, value V) *node[K, V] {
	n := idx.moveTo(key)
	for n != idx.tail && idx.keyEq(n.key, key) {
		if !n.isTombstoned() && idx.valEq != nil && idx.valEq(n.value, value) {
			return n
		}
		n = n.loadForward(0)
	}
	return nil
}

// predAtLevel returns the node whose forward pointer at level currently
// points at target, or nil if target is no longer linked at that level. It
// locates target by identity rather than key comparison, so it lands on the
// correct predecessor even when several nodes share target's key.
func (idx *OrderedIndex[K, V]) predAtLevel(target *node[K, V], level int) *node[K, V] {
	x := idx.head
	for {
		next := x.loadForward(level)
		if next == target {
			return x
		}
		if next == idx.tail || idx.less(target.key, next.key) {
			return nil
		}
		x = next
	}
}
