package rectpack

import (
	"math/bits"

	"github.com/pkg/errors"
)

// MaxPageSize 是取整后允许的最大页面边长
const MaxPageSize = 1 << 30

// DefaultPageSize 是未指定时的页面边长
const DefaultPageSize = 1024

// PlacerConfig 描述单个图集页面的尺寸和纹理间距。
// Width 和 Height 总是2的幂。
type PlacerConfig struct {
	Width   int
	Height  int
	Padding int
}

// NewPlacerConfig 创建页面配置，宽高向上取整到2的幂。
//
//	width, height - 请求的页面尺寸(必须大于0)
//	padding - 每个纹理周围预留的像素间距(不能为负)
func NewPlacerConfig(width, height, padding int) (PlacerConfig, error) {
	w, ok := nextPowerOfTwo(width)
	if !ok {
		return PlacerConfig{}, errors.Wrapf(ErrInvalidPageSize, "width %d", width)
	}
	h, ok := nextPowerOfTwo(height)
	if !ok {
		return PlacerConfig{}, errors.Wrapf(ErrInvalidPageSize, "height %d", height)
	}
	if padding < 0 {
		return PlacerConfig{}, errors.Errorf("padding must not be negative (given %d)", padding)
	}
	return PlacerConfig{Width: w, Height: h, Padding: padding}, nil
}

// DefaultPlacerConfig 返回 1024x1024、无间距的页面配置
func DefaultPlacerConfig() PlacerConfig {
	return PlacerConfig{Width: DefaultPageSize, Height: DefaultPageSize}
}

// PageSize 返回页面尺寸
func (c PlacerConfig) PageSize() Size {
	return NewSize(c.Width, c.Height)
}

// paddedSize 返回纹理缩放后的尺寸，以及加上间距后在页面上需要的空间
func (c PlacerConfig) paddedSize(texture Texture) (scaledW, scaledH, needW, needH int) {
	w, h := texture.BufferedSize()
	scaledW, scaledH = scaleDimensions(w, h, texture.DownsampleFactor())
	return scaledW, scaledH, scaledW + c.Padding, scaledH + c.Padding
}

func nextPowerOfTwo(n int) (int, bool) {
	if n <= 0 || n > MaxPageSize {
		return 0, false
	}
	if n&(n-1) == 0 {
		return n, true
	}
	return 1 << bits.Len(uint(n)), true
}
