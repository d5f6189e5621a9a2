package rectpack

import "fmt"

// Point 描述了图集页面上的一个像素位置（左上角为原点）。
type Point struct {
	// X 是在水平 x 轴上的位置。
	X int `json:"x"`
	// Y 是在垂直 y 轴上的位置。
	Y int `json:"y"`
}

// NewPoint 初始化一个具有指定坐标的新点。
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Eq 判断接收者和另一个点是否具有相同的值。
func (p *Point) Eq(point Point) bool {
	return p.X == point.X && p.Y == point.Y
}

// String 返回点的字符串表示形式。
func (p *Point) String() string {
	return fmt.Sprintf("[%v, %v]", p.X, p.Y)
}

// Size 描述了二维空间中实体的像素尺寸。
type Size struct {
	// Width 是在水平 x 轴上的尺寸。
	Width int `json:"width"`
	// Height 是在垂直 y 轴上的尺寸。
	Height int `json:"height"`
}

// NewSize 创建具有指定尺寸的新尺寸对象。
func NewSize(width, height int) Size {
	return Size{Width: width, Height: height}
}

// Eq 判断接收者和另一个尺寸是否具有相同的值。
func (sz *Size) Eq(size Size) bool {
	return sz.Width == size.Width && sz.Height == size.Height
}

// String 返回尺寸的字符串表示形式。
func (sz *Size) String() string {
	return fmt.Sprintf("[%v, %v]", sz.Width, sz.Height)
}

// Area 返回总面积（宽度 * 高度）。
func (sz *Size) Area() int {
	return sz.Width * sz.Height
}

// Perimeter 返回所有边的总长度。
func (sz *Size) Perimeter() int {
	return (sz.Width + sz.Height) << 1
}

// MaxSide 返回较大边的值。
func (sz *Size) MaxSide() int {
	return max(sz.Width, sz.Height)
}

// Fits 判断指定尺寸能否完整放入接收者内。
func (sz *Size) Fits(width, height int) bool {
	return sz.Width >= width && sz.Height >= height
}

// Rect 描述了页面上的一个轴对齐矩形（左上角位置和尺寸）。
// 空闲列表中的矩形宽高总是大于0。
type Rect struct {
	// Point 表示矩形的左上角坐标。
	Point
	// Size 表示矩形的宽度和高度。
	Size
}

// NewRect 初始化一个使用指定点和尺寸值的新矩形。
func NewRect(x, y, w, h int) Rect {
	return Rect{
		Point: Point{X: x, Y: y},
		Size:  Size{Width: w, Height: h},
	}
}

// Eq 比较两个矩形以确定位置和尺寸是否相等。
func (r *Rect) Eq(rect Rect) bool {
	return r.Point.Eq(rect.Point) && r.Size.Eq(rect.Size)
}

// String 返回描述矩形的字符串。
func (r *Rect) String() string {
	return fmt.Sprintf("[%v, %v, %v, %v]", r.X, r.Y, r.Width, r.Height)
}

// Left 返回矩形左边缘在 x 轴上的坐标。
func (r *Rect) Left() int {
	return r.X
}

// Top 返回矩形上边缘在 y 轴上的坐标。
func (r *Rect) Top() int {
	return r.Y
}

// Right 返回矩形右边缘在 x 轴上的坐标。
func (r *Rect) Right() int {
	return r.X + r.Width
}

// Bottom 返回矩形下边缘在 y 轴上的坐标。
func (r *Rect) Bottom() int {
	return r.Y + r.Height
}

// ContainsRect 测试指定的矩形是否包含在当前接收者的边界内。
func (r *Rect) ContainsRect(rect Rect) bool {
	return r.X <= rect.X &&
		rect.X+rect.Width <= r.X+r.Width &&
		r.Y <= rect.Y &&
		rect.Y+rect.Height <= r.Y+r.Height
}

// IsEmpty 测试矩形的宽度或高度是否小于1。
func (r *Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects 测试接收者是否与指定的矩形有任何重叠。
func (r *Rect) Intersects(rect Rect) bool {
	return rect.X < r.X+r.Width &&
		r.X < rect.X+rect.Width &&
		rect.Y < r.Y+r.Height &&
		r.Y < rect.Y+rect.Height
}

// mergeRects 在两个矩形共享一条等长完整边时返回它们的并集。
//
//	同 X 与同宽度且纵向相邻，或同 Y 与同高度且横向相邻
func mergeRects(a, b Rect) (Rect, bool) {
	if a.X == b.X && a.Width == b.Width {
		if a.Bottom() == b.Y {
			return NewRect(a.X, a.Y, a.Width, a.Height+b.Height), true
		}
		if b.Bottom() == a.Y {
			return NewRect(b.X, b.Y, a.Width, a.Height+b.Height), true
		}
	}
	if a.Y == b.Y && a.Height == b.Height {
		if a.Right() == b.X {
			return NewRect(a.X, a.Y, a.Width+b.Width, a.Height), true
		}
		if b.Right() == a.X {
			return NewRect(b.X, b.Y, a.Width+b.Width, a.Height), true
		}
	}
	return Rect{}, false
}

// abs 返回整数的绝对值
func abs(x int) int {
	if x >= 0 {
		return x
	}
	return -x
}
