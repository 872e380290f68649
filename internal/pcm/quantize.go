package pcm

import (
	"math"

	"github.com/alnah/speechdataset/internal/segment"
)

// Signed 16-bit PCM range.
const (
	S16Scale = 1 << 15  // 32768
	S16Min   = -S16Scale // -32768
	S16Max   = S16Scale - 1
)

// Float is the set of unit-scale sample types.
type Float interface {
	~float32 | ~float64
}

// QuantizeS16 maps unit-scale samples in [-1, 1] to signed 16-bit PCM:
// round(v * 32768) clamped to [-32768, 32767]. Out-of-range input clamps.
// Rounding is half-to-even. NaN maps to 0.
func QuantizeS16[F Float](unit []F) []int16 {
	out := make([]int16, len(unit))
	for i, v := range unit {
		out[i] = quantize(float64(v))
	}
	return out
}

// QuantizeSeries applies QuantizeS16 element-wise, keeping the shape.
func QuantizeSeries[F Float](s segment.Series[F]) segment.Series[int16] {
	q, err := segment.NewSeriesShape(QuantizeS16(s.Data()), s.Shape()...)
	if err != nil {
		// Data and shape come from a valid series.
		panic(err)
	}
	return q
}

// Normalize maps signed 16-bit PCM back to unit scale (v / 32768).
func Normalize(s16 []int16) []float32 {
	out := make([]float32, len(s16))
	for i, v := range s16 {
		out[i] = float32(v) / S16Scale
	}
	return out
}

func quantize(v float64) int16 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.RoundToEven(v * S16Scale)
	switch {
	case r < S16Min:
		return S16Min
	case r > S16Max:
		return S16Max
	default:
		return int16(r)
	}
}
