package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates an input file has an unsupported extension.
	ErrUnsupportedFormat = errors.New("unsupported series format")

	// ErrInvalidSeriesArg indicates a positional argument not of the form path:hop.
	ErrInvalidSeriesArg = errors.New("series argument must be path:hop")

	// ErrNotFloatSeries indicates a quantize input that does not hold floats.
	ErrNotFloatSeries = errors.New("series must hold float32 or float64 samples")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output already exists")

	// ErrUnknownConfigKey indicates a config key that is not supported.
	ErrUnknownConfigKey = errors.New("unknown config key")
)
