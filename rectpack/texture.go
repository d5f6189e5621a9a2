package rectpack

import (
	"fmt"
	"math"
)

// UV 是归一化的纹理坐标，原点在左下角
type UV struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// ChildUVPolygon 是引用裁切纹理的一个多边形，
// UV 相对于裁切纹理带缓冲的像素框
type ChildUVPolygon struct {
	ID  string
	UVs []UV
}

// Texture 是放置算法需要的纹理信息，实际实现见 texture 包的裁切结果
type Texture interface {
	// 缩放前、包含缓冲边缘的像素尺寸
	BufferedSize() (width, height int)
	// 放置前应用的缩放系数，取值 (0, 1]
	DownsampleFactor() float64
	// 引用该纹理的多边形
	Polygons() []ChildUVPolygon
}

// SizedTexture 是只有尺寸、没有像素数据的纹理
type SizedTexture struct {
	Width    int
	Height   int
	Factor   float64
	Children []ChildUVPolygon
}

// NewSizedTexture 创建指定像素尺寸、不缩放的纹理
func NewSizedTexture(width, height int, children ...ChildUVPolygon) *SizedTexture {
	return &SizedTexture{Width: width, Height: height, Factor: 1, Children: children}
}

func (t *SizedTexture) BufferedSize() (int, int) { return t.Width, t.Height }
func (t *SizedTexture) DownsampleFactor() float64 { return t.Factor }
func (t *SizedTexture) Polygons() []ChildUVPolygon { return t.Children }

// PlacedTextureGeometry 记录纹理被放在哪个页面的哪个位置
type PlacedTextureGeometry struct {
	ClusterID string `json:"clusterId"`
	AtlasID   int    `json:"atlasId"`
	// Origin 是纹理左上角像素在页面上的位置（不含间距）
	Origin Point `json:"origin"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
}

// Bounds 返回纹理本身覆盖的像素矩形
func (g PlacedTextureGeometry) Bounds() Rect {
	return NewRect(g.Origin.X, g.Origin.Y, g.Width, g.Height)
}

func (g PlacedTextureGeometry) String() string {
	return fmt.Sprintf("%s@%d[%d, %d, %d, %d]", g.ClusterID, g.AtlasID, g.Origin.X, g.Origin.Y, g.Width, g.Height)
}

// PlacedUVPolygon 是转换到页面UV空间后的多边形
type PlacedUVPolygon struct {
	PolygonID string `json:"polygonId"`
	ClusterID string `json:"clusterId"`
	AtlasID   int    `json:"atlasId"`
	UVs       []UV   `json:"uvs"`
}

// Placement 是放置一个纹理的结果
type Placement struct {
	Geometry PlacedTextureGeometry
	Polygons []PlacedUVPolygon
}

// scaleDimensions 应用缩放系数，结果至少为1像素
func scaleDimensions(width, height int, factor float64) (int, int) {
	w := int(math.Round(float64(width) * factor))
	h := int(math.Round(float64(height) * factor))
	return max(1, w), max(1, h)
}
