package rectpack

import (
	"strings"

	"github.com/pkg/errors"
)

// Placer 是单页纹理放置算法的接口
type Placer interface {
	// 返回页面配置。
	Config() PlacerConfig

	// 判断纹理（缩放并加上间距后）能否放入当前页面的剩余空间。
	// 只读查询，不修改状态。
	CanPlace(texture Texture) bool

	// 将纹理放到当前页面，返回放置几何和页面空间中的多边形UV。
	// 调用方必须先检查 CanPlace；放不下时返回 ErrNoFit。
	PlaceTexture(texture Texture, clusterID string, atlasID int) (Placement, error)

	// 丢弃所有空闲/已用记录，恢复为一整页空闲空间。
	Reset()
}

// Strategy 表示放置算法
type Strategy uint8

const (
	// Guillotine 维护空闲矩形列表，选择面积最匹配的矩形并沿短边切分
	Guillotine Strategy = iota
	// Tree 用存放在数组中的二叉树划分页面
	Tree
)

var strategyNames = map[Strategy]string{
	Guillotine: "guillotine",
	Tree:       "tree",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// ResolveStrategy 根据名称（不区分大小写）返回放置算法
func ResolveStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, errors.Errorf("invalid placement strategy %q", name)
}

// NewPlacer 创建实现指定算法的放置器
func NewPlacer(strategy Strategy, config PlacerConfig) (Placer, error) {
	switch strategy {
	case Guillotine:
		return NewGuillotinePlacer(config), nil
	case Tree:
		return NewTreePlacer(config), nil
	default:
		return nil, errors.Errorf("invalid placement strategy %d", strategy)
	}
}

// placedPolygons 把纹理的所有多边形转换到页面UV空间
func placedPolygons(config PlacerConfig, slot Rect, geometry PlacedTextureGeometry, texture Texture) []PlacedUVPolygon {
	children := texture.Polygons()
	if len(children) == 0 {
		return nil
	}
	placed := make([]PlacedUVPolygon, 0, len(children))
	for _, child := range children {
		uvs := make([]UV, len(child.UVs))
		for i, uv := range child.UVs {
			uvs[i] = LocalUVToPageUV(config, slot.Point, uv, geometry.Width, geometry.Height)
		}
		placed = append(placed, PlacedUVPolygon{
			PolygonID: child.ID,
			ClusterID: geometry.ClusterID,
			AtlasID:   geometry.AtlasID,
			UVs:       uvs,
		})
	}
	return placed
}
