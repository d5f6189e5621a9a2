package texture

import "math"

// MinDownsampleFactor is the smallest scale a texture can be reduced to.
const MinDownsampleFactor = 0.01

// DownsampleFactor scales a cropped texture before placement. Values are
// kept in [MinDownsampleFactor, 1].
type DownsampleFactor float64

// NewDownsampleFactor clamps f into the valid range. NaN means no downsampling.
func NewDownsampleFactor(f float64) DownsampleFactor {
	switch {
	case math.IsNaN(f), f > 1:
		return 1
	case f < MinDownsampleFactor:
		return MinDownsampleFactor
	}
	return DownsampleFactor(f)
}

func (f DownsampleFactor) Value() float64 {
	return float64(f)
}
