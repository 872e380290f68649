package pcm

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/alnah/speechdataset/internal/segment"
)

// wavFormatPCM is the WAVE audio format code for integer PCM.
const wavFormatPCM = 1

// Waveform is decoded audio at unit scale.
// Mono audio is a [time] series; multi-channel audio is [channels, time].
type Waveform struct {
	SampleRate int
	Samples    segment.Series[float32]
}

// Channels returns the number of audio channels.
func (w Waveform) Channels() int {
	return w.Samples.Rows()
}

// ReadWAV decodes an integer PCM WAV stream and scales it to [-1, 1).
func ReadWAV(r io.ReadSeeker) (Waveform, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Waveform{}, ErrNotWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("failed to decode PCM: %w", err)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	switch depth {
	case 16, 24, 32:
	default:
		return Waveform{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return Waveform{}, fmt.Errorf("%w: %d channels", ErrInvalidLayout, channels)
	}
	frames := len(buf.Data) / channels

	// De-interleave into one row per channel.
	var data []float32
	if depth == 16 {
		s16 := make([]int16, frames*channels)
		for t := range frames {
			for c := range channels {
				s16[c*frames+t] = int16(buf.Data[t*channels+c]) // #nosec G115 -- 16-bit source
			}
		}
		data = Normalize(s16)
	} else {
		scale := float32(int64(1) << (depth - 1))
		data = make([]float32, frames*channels)
		for t := range frames {
			for c := range channels {
				data[c*frames+t] = float32(buf.Data[t*channels+c]) / scale
			}
		}
	}

	shape := []int{channels, frames}
	if channels == 1 {
		shape = []int{frames}
	}
	samples, err := segment.NewSeriesShape(data, shape...)
	if err != nil {
		return Waveform{}, err
	}
	return Waveform{SampleRate: buf.Format.SampleRate, Samples: samples}, nil
}

// WriteWAV encodes 16-bit PCM as a WAV stream. samples is [time] for mono or
// [channels, time] for multi-channel audio.
func WriteWAV(w io.WriteSeeker, samples segment.Series[int16], sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if samples.Rank() > 2 {
		return fmt.Errorf("%w: shape %v", ErrInvalidLayout, samples.Shape())
	}

	channels := samples.Rows()
	if channels < 1 {
		return fmt.Errorf("%w: shape %v", ErrInvalidLayout, samples.Shape())
	}
	frames := samples.Len()
	flat := samples.Data()

	// Interleave.
	data := make([]int, frames*channels)
	for c := range channels {
		for t := range frames {
			data[t*channels+c] = int(flat[c*frames+t])
		}
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	return nil
}
