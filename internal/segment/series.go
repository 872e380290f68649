package segment

import (
	"fmt"
	"slices"
)

// Compile-time interface implementation checks.
var (
	_ Sequence = Series[float32]{}
	_ Sequence = Series[int64]{}
)

// Sequence is a series that can be windowed and tiled along its trailing
// (time) axis. Implementations must never mutate the receiver: Slice and Tile
// return newly allocated values.
type Sequence interface {
	// Len returns the number of elements along the trailing axis.
	Len() int

	// Slice returns elements [start, end) of the trailing axis.
	// It panics if the range is out of bounds, like a slice expression.
	Slice(start, end int) Sequence

	// Tile returns the sequence concatenated with itself n times along the
	// trailing axis. It panics if n < 1.
	Tile(n int) Sequence
}

// Series is an immutable row-major array whose last axis is time.
// Leading axes (channels, feature bins) are carried through every operation
// unchanged. The zero value is an empty one-dimensional series.
type Series[T any] struct {
	data  []T
	shape []int
}

// NewSeries creates a one-dimensional series holding a copy of data.
func NewSeries[T any](data []T) Series[T] {
	return Series[T]{
		data:  slices.Clone(data),
		shape: []int{len(data)},
	}
}

// NewSeriesShape creates a series of the given shape from row-major data.
// The last dimension is the time axis. data is copied.
func NewSeriesShape[T any](data []T, shape ...int) (Series[T], error) {
	if len(shape) == 0 {
		return Series[T]{}, fmt.Errorf("%w: %w: no dimensions", ErrInvalidShape, ErrInvalidArgument)
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return Series[T]{}, fmt.Errorf("%w: %w: negative dimension in %v", ErrInvalidShape, ErrInvalidArgument, shape)
		}
		n *= d
	}
	if n != len(data) {
		return Series[T]{}, fmt.Errorf("%w: %w: shape %v needs %d elements, got %d",
			ErrInvalidShape, ErrInvalidArgument, shape, n, len(data))
	}
	return Series[T]{
		data:  slices.Clone(data),
		shape: slices.Clone(shape),
	}, nil
}

// As converts a Sequence back to its concrete Series type.
func As[T any](seq Sequence) (Series[T], bool) {
	s, ok := seq.(Series[T])
	return s, ok
}

// Len returns the length of the trailing axis.
func (s Series[T]) Len() int {
	if len(s.shape) == 0 {
		return 0
	}
	return s.shape[len(s.shape)-1]
}

// Shape returns a copy of the dimensions.
func (s Series[T]) Shape() []int {
	if len(s.shape) == 0 {
		return []int{0}
	}
	return slices.Clone(s.shape)
}

// Rank returns the number of dimensions.
func (s Series[T]) Rank() int {
	if len(s.shape) == 0 {
		return 1
	}
	return len(s.shape)
}

// Rows returns the number of trailing-axis rows, i.e. the product of all
// leading dimensions. A one-dimensional series has one row.
func (s Series[T]) Rows() int {
	if len(s.shape) <= 1 {
		return 1
	}
	n := 1
	for _, d := range s.shape[:len(s.shape)-1] {
		n *= d
	}
	return n
}

// Row returns a copy of the i-th trailing-axis row.
func (s Series[T]) Row(i int) []T {
	n := s.Len()
	return slices.Clone(s.data[i*n : (i+1)*n])
}

// Data returns a copy of the row-major elements.
func (s Series[T]) Data() []T {
	return slices.Clone(s.data)
}

// Slice implements Sequence.
func (s Series[T]) Slice(start, end int) Sequence {
	return s.Window(start, end)
}

// Tile implements Sequence.
func (s Series[T]) Tile(n int) Sequence {
	return s.Repeat(n)
}

// Window is the typed form of Slice.
func (s Series[T]) Window(start, end int) Series[T] {
	n := s.Len()
	if start < 0 || end < start || end > n {
		panic(fmt.Sprintf("segment: window [%d:%d] out of range for length %d", start, end, n))
	}

	width := end - start
	rows := s.Rows()
	out := make([]T, 0, rows*width)
	for r := range rows {
		out = append(out, s.data[r*n+start:r*n+end]...)
	}
	return Series[T]{data: out, shape: s.withLen(width)}
}

// Repeat is the typed form of Tile.
func (s Series[T]) Repeat(times int) Series[T] {
	if times < 1 {
		panic(fmt.Sprintf("segment: repeat count %d must be at least 1", times))
	}

	n := s.Len()
	rows := s.Rows()
	out := make([]T, 0, rows*n*times)
	for r := range rows {
		row := s.data[r*n : (r+1)*n]
		for range times {
			out = append(out, row...)
		}
	}
	return Series[T]{data: out, shape: s.withLen(n * times)}
}

// String returns a short description for logging.
func (s Series[T]) String() string {
	var zero T
	return fmt.Sprintf("series[%T]%v", zero, s.Shape())
}

// withLen returns the shape with its trailing dimension replaced.
func (s Series[T]) withLen(n int) []int {
	shape := s.Shape()
	shape[len(shape)-1] = n
	return shape
}
