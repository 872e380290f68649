package segment

import "fmt"

// SeriesHop pairs a sequence with its hop: the number of base samples one
// element spans. A working set is an ordered []SeriesHop; its first entry is
// the reference used for derived defaults such as the random-window bound.
type SeriesHop struct {
	seq Sequence
	hop int
}

// NewSeriesHop validates and pairs a sequence with its hop.
func NewSeriesHop(seq Sequence, hop int) (SeriesHop, error) {
	if seq == nil {
		return SeriesHop{}, fmt.Errorf("%w: %w", ErrNilSequence, ErrInvalidArgument)
	}
	if hop <= 0 {
		return SeriesHop{}, fmt.Errorf("%w: %w: got %d", ErrInvalidHop, ErrInvalidArgument, hop)
	}
	return SeriesHop{seq: seq, hop: hop}, nil
}

// Sequence returns the paired sequence.
func (e SeriesHop) Sequence() Sequence { return e.seq }

// Hop returns the paired hop.
func (e SeriesHop) Hop() int { return e.hop }

// Duration returns the length of the sequence in base samples.
func (e SeriesHop) Duration() int {
	if e.seq == nil {
		return 0
	}
	return e.seq.Len() * e.hop
}

// Unit returns the least common multiple of all hops in the working set:
// the shortest span, in base samples, that is a whole number of elements in
// every series.
func Unit(set []SeriesHop) (int, error) {
	if err := validateSet(set); err != nil {
		return 0, err
	}
	unit := 1
	for _, e := range set {
		unit = lcm(unit, e.hop)
	}
	return unit, nil
}

// validateSet rejects empty sets and entries that bypassed NewSeriesHop.
func validateSet(set []SeriesHop) error {
	if len(set) == 0 {
		return fmt.Errorf("%w: %w", ErrEmptySet, ErrInvalidArgument)
	}
	for i, e := range set {
		if e.seq == nil {
			return fmt.Errorf("%w: %w: entry %d", ErrNilSequence, ErrInvalidArgument, i)
		}
		if e.hop <= 0 {
			return fmt.Errorf("%w: %w: entry %d has hop %d", ErrInvalidHop, ErrInvalidArgument, i, e.hop)
		}
	}
	return nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
