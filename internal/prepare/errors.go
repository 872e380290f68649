package prepare

import "errors"

// ErrNoItems indicates a corpus without any item to prepare.
var ErrNoItems = errors.New("no items to prepare")

// ErrNotMono indicates a corpus waveform with more than one channel.
var ErrNotMono = errors.New("waveform must be mono")
