package orderedindex

import "sync/atomic"

// cacheLinePad keeps adjacent shards on separate cache lines so unrelated
// goroutines incrementing different shards don't false-share.
const cacheLinePad = 64 - 8*3

type metricShard struct {
	length        atomic.Int64
	insertRetry   atomic.Int64
	insertSuccess atomic.Int64
	_             [cacheLinePad]byte
}

// metricsCollector shards the index's mutable counters across a fixed table
// so concurrent inserters touching unrelated shards don't contend on the
// same cache line. Callers pick a shard from the address of the node being
// inserted or deleted (shardHint), giving a cheap and even-enough spread.
type metricsCollector struct {
	shards []metricShard
	mask   uint64
}

func newMetricsCollector(shardHint int) *metricsCollector {
	n := nextPowerOfTwo(shardHint)
	return &metricsCollector{
		shards: make([]metricShard, n),
		mask:   uint64(n - 1),
	}
}

func nextPowerOfTwo(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (m *metricsCollector) shardFor(hint uint64) *metricShard {
	return &m.shards[hint&m.mask]
}

func (m *metricsCollector) incInsertRetry(hint uint64) {
	m.shardFor(hint).insertRetry.Add(1)
}

func (m *metricsCollector) incInsertSuccess(hint uint64) {
	m.shardFor(hint).insertSuccess.Add(1)
}

func (m *metricsCollector) addLen(hint uint64, delta int64) {
	m.shardFor(hint).length.Add(delta)
}

func (m *metricsCollector) len() int {
	var total int64
	for i := range m.shards {
		total += m.shards[i].length.Load()
	}
	return int(total)
}

// InsertStats summarizes CAS contention observed across every Insert call
// made against an index since construction.
type InsertStats struct {
	Retries   int64
	Successes int64
}

func (m *metricsCollector) insertStats() InsertStats {
	var s InsertStats
	for i := range m.shards {
		s.Retries += m.shards[i].insertRetry.Load()
		s.Successes += m.shards[i].insertSuccess.Load()
	}
	return s
}
