package core

import "math"

// Interval is a parameter-space segment [TMin, TMax] of a ray lying inside a
// volume's bounds, tagged with the instance that produced it (an opaque
// handle; pkg/object stores the owning *object.Instance here).
type Interval struct {
	TMin, TMax float64
	Owner      any
}

// IntervalList is a sorted (ascending on TMin) collection of Intervals that
// tracks its own aggregate [MinT, MaxT] across every interval ever pushed.
// Overlapping intervals are preserved; Push never merges.
type IntervalList struct {
	items      []Interval
	minT, maxT float64
}

// NewIntervalList returns an empty list, with MinT/MaxT seeded to
// math.MaxFloat64 / -math.MaxFloat64 so the first Push establishes both
// bounds.
func NewIntervalList() *IntervalList {
	return &IntervalList{minT: math.MaxFloat64, maxT: -math.MaxFloat64}
}

// Push inserts interval in ascending-TMin order (linear scan; interval
// lists per ray are small) and updates the running aggregate bounds.
func (l *IntervalList) Push(interval Interval) {
	i := 0
	for i < len(l.items) && l.items[i].TMin <= interval.TMin {
		i++
	}
	l.items = append(l.items, Interval{})
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = interval

	l.minT = math.Min(l.minT, interval.TMin)
	l.maxT = math.Max(l.maxT, interval.TMax)
}

// Count returns the number of intervals in the list.
func (l *IntervalList) Count() int { return len(l.items) }

// MinT returns the minimum TMin across every pushed interval, or
// math.MaxFloat64 if the list is empty.
func (l *IntervalList) MinT() float64 { return l.minT }

// MaxT returns the maximum TMax across every pushed interval, or
// -math.MaxFloat64 if the list is empty.
func (l *IntervalList) MaxT() float64 { return l.maxT }

// Items returns the intervals in ascending-TMin order. The returned slice
// must not be mutated by the caller.
func (l *IntervalList) Items() []Interval { return l.items }
