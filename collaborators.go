package orderedindex

// Less reports whether a sorts strictly before b under the caller's total
// order. It must be a strict weak ordering, total under the domain of keys
// used, pure, and safe to call from multiple goroutines concurrently.
type Less[K any] func(a, b K) bool

// KeyEqual reports whether two keys are equivalent under the same total
// order as Less (neither less nor greater implies equal). New does not take
// a KeyEqual; it always derives one from Less.
type KeyEqual[K any] func(a, b K) bool

// ValueEqual disambiguates duplicate-key nodes carrying different values.
// It is used to tell apart (key, v1) and (key, v2) when the index is
// constructed in non-unique mode.
type ValueEqual[V any] func(a, b V) bool
