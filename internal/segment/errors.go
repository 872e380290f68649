package segment

import "errors"

// Invalid argument errors. Every one of them also matches ErrInvalidArgument
// through errors.Is.
var (
	// ErrInvalidArgument is the class of all caller argument errors.
	ErrInvalidArgument = errors.New("segment: invalid argument")

	// ErrEmptySet indicates a working set with no entries.
	ErrEmptySet = errors.New("segment: empty working set")

	// ErrInvalidHop indicates a hop that is not a positive integer.
	ErrInvalidHop = errors.New("segment: hop must be a positive integer")

	// ErrNilSequence indicates a SeriesHop without a sequence.
	ErrNilSequence = errors.New("segment: nil sequence")

	// ErrInvalidShape indicates data whose length does not match its shape.
	ErrInvalidShape = errors.New("segment: data length does not match shape")
)

// Misalignment errors. The caller broke the unit-alignment contract or asked
// for more data than the working set holds.
var (
	// ErrMisaligned indicates a start or length that is not a multiple of the unit.
	ErrMisaligned = errors.New("segment: offset is not a multiple of the unit")

	// ErrSegmentTooLong indicates a window running past the end of a series.
	ErrSegmentTooLong = errors.New("segment: segment exceeds available duration")

	// ErrNoFullUnit indicates a working set too short to hold a single unit,
	// so it cannot be tiled up to a minimum length.
	ErrNoFullUnit = errors.New("segment: working set holds no full unit")
)

// ErrExcessiveRepeat indicates that reaching the minimum length would need
// MaxRepeat or more copies of the aligned series.
var ErrExcessiveRepeat = errors.New("segment: minimum length needs excessive repetition")
