package orderedindex

// debugAssertions gates internal invariant checks that indicate a bug in
// this package, not a caller error, when tripped. Off by default; flip in
// a debug build or test binary that imports this package's internal tests.
var debugAssertions = false

func assertInvariant(cond bool, msg string) {
	if debugAssertions && !cond {
		panic("orderedindex: invariant violated: " + msg)
	}
}
