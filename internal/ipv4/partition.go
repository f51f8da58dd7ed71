package ipv4

// Partition deals intervals out round-robin: interval i goes to worker
// i % workers. The result always has workers entries; some may be empty.
func Partition(intervals []Interval, workers int) [][]Interval {
	if workers < 1 {
		workers = 1
	}

	parts := make([][]Interval, workers)
	for i, iv := range intervals {
		parts[i%workers] = append(parts[i%workers], iv)
	}
	return parts
}

// Iterator yields every address of its intervals in order. It is lazy,
// finite and can be restarted with Reset. Not safe for concurrent use.
type Iterator struct {
	intervals []Interval
	idx       int
	cursor    uint64
}

// NewIterator returns an iterator positioned before the first address.
func NewIterator(intervals []Interval) *Iterator {
	it := &Iterator{intervals: intervals}
	it.Reset()
	return it
}

// Next returns the next address, or false once every interval is exhausted.
func (it *Iterator) Next() (uint32, bool) {
	for it.idx < len(it.intervals) {
		iv := it.intervals[it.idx]
		if it.cursor <= uint64(iv.End) {
			addr := uint32(it.cursor)
			it.cursor++
			return addr, true
		}

		it.idx++
		if it.idx < len(it.intervals) {
			it.cursor = uint64(it.intervals[it.idx].Start)
		}
	}
	return 0, false
}

// Reset rewinds the iterator to the first address.
func (it *Iterator) Reset() {
	it.idx = 0
	it.cursor = 0
	if len(it.intervals) > 0 {
		it.cursor = uint64(it.intervals[0].Start)
	}
}
