package segment

import (
	"fmt"
	"math/rand/v2"
)

// Segment is a window cut from an aligned working set.
type Segment struct {
	Start  int        // Window start in base samples.
	Length int        // Window length in base samples.
	Series []Sequence // One window per working-set entry, in input order.
}

// ClipSegment cuts the window [start, start+lenSegment), given in base
// samples, out of every series. Series i yields elements
// [start/hop_i, start/hop_i + lenSegment/hop_i).
//
// start and lenSegment must be multiples of the working set's unit. This is
// not checked: a misaligned window is cut anyway and the series drift apart by
// less than one unit. Use CheckAligned to enforce it.
func ClipSegment(set []SeriesHop, lenSegment, start int) ([]Sequence, error) {
	if err := validateSet(set); err != nil {
		return nil, err
	}
	if start < 0 || lenSegment < 0 {
		return nil, fmt.Errorf("%w: start %d and length %d must be non-negative", ErrInvalidArgument, start, lenSegment)
	}

	out := make([]Sequence, len(set))
	for i, e := range set {
		from := start / e.hop
		to := from + lenSegment/e.hop
		if to > e.seq.Len() {
			return nil, fmt.Errorf("%w: entry %d needs frames [%d:%d], has %d",
				ErrSegmentTooLong, i, from, to, e.seq.Len())
		}
		out[i] = e.seq.Slice(from, to)
	}
	return out, nil
}

// CheckAligned reports whether start and lenSegment sit on unit boundaries of
// the working set.
func CheckAligned(set []SeriesHop, lenSegment, start int) error {
	unit, err := Unit(set)
	if err != nil {
		return err
	}
	if start%unit != 0 || lenSegment%unit != 0 {
		return fmt.Errorf("%w: start %d, length %d, unit %d", ErrMisaligned, start, lenSegment, unit)
	}
	return nil
}

// ClipSegmentRandom cuts a lenSegment-long window at a random start drawn
// from src. The start is uniform over the unit boundaries in
// [0, D-lenSegment], where D is the duration of the first (reference) entry.
// Draws are deterministic for a given source state.
func ClipSegmentRandom(set []SeriesHop, lenSegment int, src rand.Source) (Segment, error) {
	unit, err := Unit(set)
	if err != nil {
		return Segment{}, err
	}
	if src == nil {
		return Segment{}, fmt.Errorf("%w: nil random source", ErrInvalidArgument)
	}
	if lenSegment < 0 {
		return Segment{}, fmt.Errorf("%w: length %d must be non-negative", ErrInvalidArgument, lenSegment)
	}
	if lenSegment%unit != 0 {
		return Segment{}, fmt.Errorf("%w: length %d, unit %d", ErrMisaligned, lenSegment, unit)
	}

	maxStart := set[0].Duration() - lenSegment
	if maxStart < 0 {
		return Segment{}, fmt.Errorf("%w: length %d, reference duration %d",
			ErrSegmentTooLong, lenSegment, set[0].Duration())
	}

	start := rand.New(src).IntN(maxStart/unit+1) * unit

	series, err := ClipSegment(set, lenSegment, start)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Start: start, Length: lenSegment, Series: series}, nil
}
