package rectpack

import (
	"cmp"

	"github.com/maruel/natural"
)

// Entry 是等待打包的纹理及其ID
type Entry struct {
	ID      string
	Texture Texture
}

// size 返回纹理缩放后的尺寸
func (e Entry) size() Size {
	w, h := e.Texture.BufferedSize()
	return NewSize(scaleDimensions(w, h, e.Texture.DownsampleFactor()))
}

// SortFunc 定义纹理比较函数的原型
// 返回值:
//
//	-1: a 排在 b 前面
//	 0: 相同
//	 1: a 排在 b 后面
type SortFunc func(a, b Entry) int

// SortArea 按缩放后面积降序排序(从大到小)
func SortArea(a, b Entry) int {
	sa, sb := a.size(), b.size()
	return cmp.Compare(sb.Area(), sa.Area())
}

// SortPerimeter 按缩放后周长降序排序(从大到小)
func SortPerimeter(a, b Entry) int {
	sa, sb := a.size(), b.size()
	return cmp.Compare(sb.Perimeter(), sa.Perimeter())
}

// SortDiff 按宽高差降序排序(从大到小)
func SortDiff(a, b Entry) int {
	sa, sb := a.size(), b.size()
	return cmp.Compare(abs(sb.Width-sb.Height), abs(sa.Width-sa.Height))
}

// SortMaxSide 按最长边降序排序(从大到小)
func SortMaxSide(a, b Entry) int {
	sa, sb := a.size(), b.size()
	return cmp.Compare(sb.MaxSide(), sa.MaxSide())
}

// SortNatural 按ID自然顺序升序排序（"tex2" 排在 "tex10" 前面）
func SortNatural(a, b Entry) int {
	switch {
	case natural.Less(a.ID, b.ID):
		return -1
	case natural.Less(b.ID, a.ID):
		return 1
	}
	return 0
}

// ResolveSortFunc 根据名称返回排序函数；"input" 或空字符串表示保持加入顺序
func ResolveSortFunc(name string) (SortFunc, bool) {
	switch name {
	case "", "input":
		return nil, true
	case "natural":
		return SortNatural, true
	case "area":
		return SortArea, true
	case "perimeter":
		return SortPerimeter, true
	case "diff":
		return SortDiff, true
	case "maxside":
		return SortMaxSide, true
	}
	return nil, false
}
