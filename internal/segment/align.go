package segment

import "fmt"

// DefaultMinLength is the minimum aligned duration, in base samples, used
// when the caller has no stronger requirement.
const DefaultMinLength = 1

// MaxRepeat is the tiling factor at which MatchLength gives up. Needing this
// many copies means the minimum length is misconfigured for the data.
const MaxRepeat = 100

// MatchLength truncates every series to the largest whole number of units
// that all of them can supply, then, if the common duration is shorter than
// minLength base samples, tiles every series by the same factor until it is
// not. Output order matches input order.
//
// Tails that do not fill a whole unit are dropped from every series, including
// series that individually hold more full units. Tiling is uniform across the
// set so the series stay mutually aligned.
func MatchLength(set []SeriesHop, minLength int) ([]Sequence, error) {
	unit, err := Unit(set)
	if err != nil {
		return nil, err
	}
	if minLength < 0 {
		return nil, fmt.Errorf("%w: minimum length %d is negative", ErrInvalidArgument, minLength)
	}

	nUnits := -1
	for _, e := range set {
		n := e.seq.Len() / (unit / e.hop)
		if nUnits < 0 || n < nUnits {
			nUnits = n
		}
	}

	out := make([]Sequence, len(set))
	for i, e := range set {
		out[i] = e.seq.Slice(0, nUnits*(unit/e.hop))
	}

	duration := nUnits * unit
	if duration >= minLength {
		return out, nil
	}
	if duration == 0 {
		return nil, fmt.Errorf("%w: unit is %d base samples, shortest series holds less", ErrNoFullUnit, unit)
	}

	repeat := repeatFactor(duration, minLength)
	if repeat >= MaxRepeat {
		return nil, fmt.Errorf("%w: %d copies of %d samples to reach %d (limit %d)",
			ErrExcessiveRepeat, repeat, duration, minLength, MaxRepeat)
	}
	for i := range out {
		out[i] = out[i].Tile(repeat)
	}
	return out, nil
}

// repeatFactor returns the smallest n with n*duration >= minLength.
// Both arguments are positive and minLength > duration.
func repeatFactor(duration, minLength int) int {
	return 1 + (minLength-1)/duration
}
