package rectpack

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type scoreFunc func(width, height int, freeRect *Rect) int

// GuillotinePlacer 把纹理放进面积最匹配的空闲矩形，
// 剩余部分沿空闲矩形的短边切分
type GuillotinePlacer struct {
	config    PlacerConfig
	Merge     bool
	scoreRect scoreFunc
	freeRects []Rect
	usedRects map[string]PlacedTextureGeometry
}

// NewGuillotinePlacer 创建放置器，初始只有一个覆盖整页的空闲矩形
func NewGuillotinePlacer(config PlacerConfig) *GuillotinePlacer {
	p := &GuillotinePlacer{
		config:    config,
		Merge:     true,
		scoreRect: scoreBestArea,
		usedRects: make(map[string]PlacedTextureGeometry),
	}
	p.Reset()
	return p
}

func (p *GuillotinePlacer) Config() PlacerConfig {
	return p.config
}

func (p *GuillotinePlacer) Reset() {
	p.freeRects = p.freeRects[:0]
	p.freeRects = append(p.freeRects, NewRect(0, 0, p.config.Width, p.config.Height))
	clear(p.usedRects)
}

func (p *GuillotinePlacer) CanPlace(texture Texture) bool {
	_, _, w, h := p.config.paddedSize(texture)
	for _, freeRect := range p.freeRects {
		if freeRect.Fits(w, h) {
			return true
		}
	}
	return false
}

func (p *GuillotinePlacer) PlaceTexture(texture Texture, clusterID string, atlasID int) (Placement, error) {
	scaledW, scaledH, w, h := p.config.paddedSize(texture)
	index := p.findPosition(w, h)
	if index < 0 {
		return Placement{}, errors.Wrapf(ErrNoFit, "texture %s (%dx%d, padding %d)", clusterID, scaledW, scaledH, p.config.Padding)
	}
	freeRect := p.freeRects[index]
	geometry := PlacedTextureGeometry{
		ClusterID: clusterID,
		AtlasID:   atlasID,
		Origin:    NewPoint(freeRect.X+p.config.Padding, freeRect.Y+p.config.Padding),
		Width:     scaledW,
		Height:    scaledH,
	}
	placement := Placement{
		Geometry: geometry,
		Polygons: placedPolygons(p.config, freeRect, geometry, texture),
	}

	p.usedRects[clusterID] = geometry
	p.freeRects = slices.Delete(p.freeRects, index, index+1)
	p.splitByShorterAxis(&freeRect, &geometry)
	if p.Merge {
		p.MergeFreeList()
	}
	klog.V(4).Infof("placed %s at %s in free rect %s, %d free rects left", clusterID, geometry.Origin.String(), freeRect.String(), len(p.freeRects))
	return placement, nil
}

// FreeRects 返回当前空闲矩形列表的副本
func (p *GuillotinePlacer) FreeRects() []Rect {
	return slices.Clone(p.freeRects)
}

// Used 返回当前页面上 clusterID 的放置几何
func (p *GuillotinePlacer) Used(clusterID string) (PlacedTextureGeometry, bool) {
	g, ok := p.usedRects[clusterID]
	return g, ok
}

func scoreBestArea(width, height int, freeRect *Rect) int {
	return freeRect.Width*freeRect.Height - width*height
}

// findPosition 返回评分最小的可容纳空闲矩形的下标，没有时返回-1。
// 评分相同时保留先找到的
func (p *GuillotinePlacer) findPosition(width, height int) int {
	bestIndex := -1
	bestScore := math.MaxInt
	for i := range p.freeRects {
		freeRect := &p.freeRects[i]
		if !freeRect.Fits(width, height) {
			continue
		}
		if score := p.scoreRect(width, height, freeRect); score < bestScore {
			bestIndex = i
			bestScore = score
		}
	}
	return bestIndex
}

func (p *GuillotinePlacer) splitByShorterAxis(freeRect *Rect, placed *PlacedTextureGeometry) {
	p.splitAlongAxis(freeRect, placed, freeRect.Width <= freeRect.Height)
}

// splitAlongAxis 把 freeRect 剩余部分切成右侧和下方两块，
// 两块都与已放置的纹理隔开一个间距
func (p *GuillotinePlacer) splitAlongAxis(freeRect *Rect, placed *PlacedTextureGeometry, splitHorizontal bool) {
	padding := p.config.Padding
	var bottom Rect
	bottom.X = freeRect.X
	bottom.Y = freeRect.Y + placed.Height + padding
	bottom.Height = freeRect.Height - placed.Height - padding
	var right Rect
	right.X = freeRect.X + placed.Width + padding
	right.Y = freeRect.Y
	right.Width = freeRect.Width - placed.Width - padding
	if splitHorizontal {
		bottom.Width = freeRect.Width
		right.Height = placed.Height
	} else {
		bottom.Width = placed.Width
		right.Height = freeRect.Height
	}
	if !right.IsEmpty() {
		p.freeRects = append(p.freeRects, right)
	}
	if !bottom.IsEmpty() {
		p.freeRects = append(p.freeRects, bottom)
	}
}

// MergeFreeList 反复合并共享完整边的空闲矩形，直到没有可合并的为止。
// 再次调用不会改变结果
func (p *GuillotinePlacer) MergeFreeList() {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(p.freeRects); i++ {
			for j := i + 1; j < len(p.freeRects); j++ {
				if m, ok := mergeRects(p.freeRects[i], p.freeRects[j]); ok {
					p.freeRects[i] = m
					p.freeRects = slices.Delete(p.freeRects, j, j+1)
					j--
					merged = true
				}
			}
		}
	}
}
