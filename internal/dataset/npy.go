package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/alnah/speechdataset/internal/segment"
)

// NumPy dtype descriptors this package reads.
const (
	dtypeFloat32 = "<f4"
	dtypeFloat64 = "<f8"
	dtypeInt64   = "<i8"
	dtypeInt32   = "<i4"
	dtypeInt16   = "<i2"
)

// CheckSeries reports whether SaveSeries can encode seq, without writing.
func CheckSeries(seq segment.Sequence) error {
	_, err := npyValue(seq)
	return err
}

// SaveSeries writes a series as a NumPy .npy file, creating parent
// directories as needed.
//
// Vectors of float32, float64, int64, int32 and int16 keep their dtype.
// Matrices ([rows, time]) are stored as float64; float32 matrices are widened.
func SaveSeries(path string, seq segment.Sequence) error {
	val, err := npyValue(seq)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil { // #nosec G301 -- dataset dir
		return fmt.Errorf("cannot create directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- path built by PathFor
	if err != nil {
		return fmt.Errorf("cannot create array file: %w", err)
	}
	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if err := npyio.Write(f, val); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}()
	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}

// LoadSeries reads a .npy file written by SaveSeries (or NumPy) back into a
// series. The concrete type is Series[T] for the stored dtype; float32 and
// float64 matrices, in C or Fortran order, load as Series[float64].
func LoadSeries(path string) (segment.Sequence, error) {
	f, err := os.Open(path) // #nosec G304 -- path built by PathFor or given by the user
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid npy header: %w", path, err)
	}
	dtype := r.Header.Descr.Type
	shape := r.Header.Descr.Shape

	switch len(shape) {
	case 1:
		switch dtype {
		case dtypeFloat32:
			return readVector[float32](r)
		case dtypeFloat64:
			return readVector[float64](r)
		case dtypeInt64:
			return readVector[int64](r)
		case dtypeInt32:
			return readVector[int32](r)
		case dtypeInt16:
			return readVector[int16](r)
		}
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnsupportedDtype, dtype)

	case 2:
		rows, cols := shape[0], shape[1]
		if rows == 0 || cols == 0 {
			return nil, fmt.Errorf("%s: %w: empty matrix %v", path, ErrUnsupportedRank, shape)
		}
		switch dtype {
		case dtypeFloat64:
			// npyio honors Fortran order when filling a Dense.
			var m mat.Dense
			if err := r.Read(&m); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return fromDense(&m)
		case dtypeFloat32:
			seq, err := readMatrix32(r, rows, cols, r.Header.Descr.Fortran)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return seq, nil
		}
		return nil, fmt.Errorf("%s: %w: matrix of %s", path, ErrUnsupportedDtype, dtype)
	}

	return nil, fmt.Errorf("%s: %w: shape %v", path, ErrUnsupportedRank, shape)
}

func readVector[T any](r *npyio.Reader) (segment.Sequence, error) {
	var data []T
	if err := r.Read(&data); err != nil {
		return nil, fmt.Errorf("failed to read array: %w", err)
	}
	return segment.NewSeries(data), nil
}

// readMatrix32 reads a float32 matrix and widens it to float64 in row-major
// order.
func readMatrix32(r *npyio.Reader, rows, cols int, fortran bool) (segment.Sequence, error) {
	var raw []float32
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	if len(raw) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for shape [%d %d]", ErrSchemaMismatch, len(raw), rows, cols)
	}

	data := make([]float64, rows*cols)
	for i := range rows {
		for j := range cols {
			src := i*cols + j
			if fortran {
				src = j*rows + i
			}
			data[i*cols+j] = float64(raw[src])
		}
	}
	return segment.NewSeriesShape(data, rows, cols)
}

// npyValue converts a series to a value npyio can encode.
func npyValue(seq segment.Sequence) (any, error) {
	switch s := seq.(type) {
	case segment.Series[float32]:
		return floatValue(s)
	case segment.Series[float64]:
		return floatValue(s)
	case segment.Series[int64]:
		return intVector(s)
	case segment.Series[int32]:
		return intVector(s)
	case segment.Series[int16]:
		return intVector(s)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedDtype, seq)
}

func floatValue[T float32 | float64](s segment.Series[T]) (any, error) {
	switch s.Rank() {
	case 1:
		return s.Data(), nil
	case 2:
		shape := s.Shape()
		if shape[0] == 0 || shape[1] == 0 {
			return nil, fmt.Errorf("%w: empty matrix %v", ErrUnsupportedRank, shape)
		}
		src := s.Data()
		data := make([]float64, len(src))
		for i, v := range src {
			data[i] = float64(v)
		}
		return mat.NewDense(shape[0], shape[1], data), nil
	}
	return nil, fmt.Errorf("%w: shape %v", ErrUnsupportedRank, s.Shape())
}

func intVector[T int64 | int32 | int16](s segment.Series[T]) (any, error) {
	if s.Rank() != 1 {
		return nil, fmt.Errorf("%w: integer arrays must be vectors, got shape %v", ErrUnsupportedRank, s.Shape())
	}
	return s.Data(), nil
}

func fromDense(m *mat.Dense) (segment.Sequence, error) {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)
	for i := range rows {
		data = append(data, m.RawRowView(i)...)
	}
	return segment.NewSeriesShape(data, rows, cols)
}
