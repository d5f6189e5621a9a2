package rectpack

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const noChild = -1

// treeNode 是页面划分中的一个节点，子节点用数组下标表示
type treeNode struct {
	rect     Rect
	children [2]int
	used     bool
}

func (n *treeNode) isLeaf() bool {
	return n.children[0] == noChild
}

// TreePlacer 用二叉树划分页面。
// 节点存放在一个数组中，用显式栈遍历
type TreePlacer struct {
	config PlacerConfig
	nodes  []treeNode
	stack  []int
}

// NewTreePlacer 创建根节点覆盖整页的放置器
func NewTreePlacer(config PlacerConfig) *TreePlacer {
	p := &TreePlacer{config: config}
	p.Reset()
	return p
}

func (p *TreePlacer) Config() PlacerConfig {
	return p.config
}

func (p *TreePlacer) Reset() {
	p.nodes = p.nodes[:0]
	p.newNode(NewRect(0, 0, p.config.Width, p.config.Height))
}

func (p *TreePlacer) CanPlace(texture Texture) bool {
	_, _, w, h := p.config.paddedSize(texture)
	for i := range p.nodes {
		n := &p.nodes[i]
		if n.isLeaf() && !n.used && n.rect.Fits(w, h) {
			return true
		}
	}
	return false
}

func (p *TreePlacer) PlaceTexture(texture Texture, clusterID string, atlasID int) (Placement, error) {
	scaledW, scaledH, w, h := p.config.paddedSize(texture)
	index := p.insert(w, h)
	if index == noChild {
		return Placement{}, errors.Wrapf(ErrNoFit, "texture %s (%dx%d, padding %d)", clusterID, scaledW, scaledH, p.config.Padding)
	}
	slot := p.nodes[index].rect
	geometry := PlacedTextureGeometry{
		ClusterID: clusterID,
		AtlasID:   atlasID,
		Origin:    NewPoint(slot.X+p.config.Padding, slot.Y+p.config.Padding),
		Width:     scaledW,
		Height:    scaledH,
	}
	klog.V(4).Infof("placed %s at %s in tree node %d", clusterID, geometry.Origin.String(), index)
	return Placement{
		Geometry: geometry,
		Polygons: placedPolygons(p.config, slot, geometry, texture),
	}, nil
}

// Leaves 按遍历顺序返回未使用的叶子矩形
func (p *TreePlacer) Leaves() []Rect {
	var leaves []Rect
	for i := range p.nodes {
		if n := &p.nodes[i]; n.isLeaf() && !n.used {
			leaves = append(leaves, n.rect)
		}
	}
	return leaves
}

func (p *TreePlacer) newNode(rect Rect) int {
	p.nodes = append(p.nodes, treeNode{rect: rect, children: [2]int{noChild, noChild}})
	return len(p.nodes) - 1
}

// insert 按深度优先找到第一个能容纳 w x h 的空闲叶子，
// 切分到恰好等于该尺寸后标记为已使用
func (p *TreePlacer) insert(w, h int) int {
	p.stack = append(p.stack[:0], 0)
	for len(p.stack) > 0 {
		index := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]

		if !p.nodes[index].isLeaf() {
			p.stack = append(p.stack, p.nodes[index].children[1], p.nodes[index].children[0])
			continue
		}
		n := p.nodes[index]
		if n.used || !n.rect.Fits(w, h) {
			continue
		}
		if n.rect.Width == w && n.rect.Height == h {
			p.nodes[index].used = true
			return index
		}

		// 沿剩余空间较多的方向切分，第一个子节点保持纹理在该方向上的尺寸
		var first, second Rect
		dw := n.rect.Width - w
		dh := n.rect.Height - h
		if dw > dh {
			first = NewRect(n.rect.X, n.rect.Y, w, n.rect.Height)
			second = NewRect(n.rect.X+w, n.rect.Y, dw, n.rect.Height)
		} else {
			first = NewRect(n.rect.X, n.rect.Y, n.rect.Width, h)
			second = NewRect(n.rect.X, n.rect.Y+h, n.rect.Width, dh)
		}
		c0 := p.newNode(first)
		c1 := p.newNode(second)
		p.nodes[index].children = [2]int{c0, c1}
		p.stack = append(p.stack, c0)
	}
	return noChild
}
