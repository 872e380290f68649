package pcm

import "errors"

// ErrNotWAV indicates the input is not a RIFF/WAVE file.
var ErrNotWAV = errors.New("not a WAV file")

// ErrUnsupportedBitDepth indicates a PCM bit depth other than 16, 24 or 32.
var ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")

// ErrInvalidLayout indicates a series that cannot be laid out as [channels, time].
var ErrInvalidLayout = errors.New("series must be [time] or [channels, time]")

// ErrInvalidSampleRate indicates a non-positive sample rate.
var ErrInvalidSampleRate = errors.New("sample rate must be positive")
