package rectpack

import (
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Atlas 是一个页面上按放置顺序排列的纹理几何
type Atlas []PlacedTextureGeometry

// TextureLocation 记录纹理最终所在的页面和在页面中的序号
type TextureLocation struct {
	AtlasID int
	Index   int
}

// Packer 包含多页纹理打包器的状态
//
// AddTexture 可以被多个 goroutine 调用，每次放置都在同一把锁内完成。
// 最后一个纹理加入后必须调用 Finalize，否则最后一页会丢失。
type Packer struct {
	mu sync.Mutex

	// placer 是实现具体放置算法的实例，换页时通过 Reset 复用
	placer Placer

	// textures 保存所有加入过的纹理
	textures map[string]Texture

	// current 是正在填充的页面
	current Atlas

	// atlases 是已经关闭的页面，页面编号按关闭顺序从0开始
	atlases []Atlas

	// locations 是纹理ID到最终位置的映射
	locations map[string]TextureLocation

	// polygons 是所有已放置多边形的页面UV
	polygons []PlacedUVPolygon
}

// NewPacker 创建一个使用指定放置算法的打包器
func NewPacker(placer Placer) *Packer {
	p := &Packer{placer: placer}
	p.clear()
	return p
}

func (p *Packer) clear() {
	p.textures = make(map[string]Texture)
	p.current = nil
	p.atlases = nil
	p.locations = make(map[string]TextureLocation)
	p.polygons = nil
	p.placer.Reset()
}

// Config 返回页面配置
func (p *Packer) Config() PlacerConfig {
	return p.placer.Config()
}

// AddTexture 把纹理放到当前页面；当前页面放不下时关闭当前页面并在新页面上放置。
// 纹理连空页面都放不下时返回 ErrTextureTooLarge，纹理不会被静默丢弃。
func (p *Packer) AddTexture(id string, texture Texture) (Placement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.textures[id]; ok {
		return Placement{}, errors.Wrapf(ErrDuplicateTexture, "texture %s", id)
	}
	if w, h := texture.BufferedSize(); w <= 0 || h <= 0 {
		return Placement{}, errors.Wrapf(ErrEmptyTexture, "texture %s (%dx%d)", id, w, h)
	}

	// 先和整页比较，放不下的纹理不能让当前页面提前关闭
	config := p.placer.Config()
	if _, _, w, h := config.paddedSize(texture); w > config.Width || h > config.Height {
		return Placement{}, p.tooLarge(id, texture)
	}
	if !p.placer.CanPlace(texture) && len(p.current) > 0 {
		p.closePage()
	}

	atlasID := len(p.atlases)
	placement, err := p.placer.PlaceTexture(texture, id, atlasID)
	if err != nil {
		return Placement{}, err
	}
	p.textures[id] = texture
	p.locations[id] = TextureLocation{AtlasID: atlasID, Index: len(p.current)}
	p.current = append(p.current, placement.Geometry)
	p.polygons = append(p.polygons, placement.Polygons...)
	return placement, nil
}

func (p *Packer) tooLarge(id string, texture Texture) error {
	config := p.placer.Config()
	scaledW, scaledH, _, _ := config.paddedSize(texture)
	return errors.Wrapf(ErrTextureTooLarge, "texture %s is %dx%d with padding %d, page is %dx%d",
		id, scaledW, scaledH, config.Padding, config.Width, config.Height)
}

// closePage 把当前页面移入已完成页面列表并重置放置器
func (p *Packer) closePage() {
	klog.V(2).Infof("closing atlas %d with %d textures", len(p.atlases), len(p.current))
	p.atlases = append(p.atlases, p.current)
	p.current = nil
	p.placer.Reset()
}

// Finalize 关闭最后一个页面并返回只读的打包结果。
// 打包器的状态交给结果后清空，可以重新开始打包。
func (p *Packer) Finalize() *PackResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.current) > 0 {
		p.closePage()
	}
	result := &PackResult{
		config:    p.placer.Config(),
		atlases:   p.atlases,
		textures:  p.textures,
		locations: p.locations,
		polygons:  p.polygons,
	}
	p.clear()
	return result
}
