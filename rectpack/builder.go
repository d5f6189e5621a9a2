package rectpack

import (
	"slices"

	"github.com/pkg/errors"
)

// Builder 收集所有纹理，在 Build 时一次性打包（离线模式）
//
// 放置顺序是明确的输入：默认按 Add 的调用顺序，
// 设置 SortBy 后按排序函数稳定排序。相同的输入总是得到相同的页面。
type Builder struct {
	placer   Placer
	entries  []Entry
	ids      map[string]struct{}
	sortFunc SortFunc
}

// NewBuilder 创建一个使用指定放置算法的构建器
func NewBuilder(placer Placer) *Builder {
	return &Builder{
		placer: placer,
		ids:    make(map[string]struct{}),
	}
}

// Add 追加一个纹理，ID 重复时返回 ErrDuplicateTexture
func (b *Builder) Add(id string, texture Texture) error {
	if _, ok := b.ids[id]; ok {
		return errors.Wrapf(ErrDuplicateTexture, "texture %s", id)
	}
	b.ids[id] = struct{}{}
	b.entries = append(b.entries, Entry{ID: id, Texture: texture})
	return nil
}

// SortBy 设置打包前使用的排序函数，nil 表示保持加入顺序
func (b *Builder) SortBy(compare SortFunc) {
	b.sortFunc = compare
}

// Len 返回已加入的纹理数量
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build 按确定的顺序放置所有纹理并返回打包结果
func (b *Builder) Build() (*PackResult, error) {
	entries := slices.Clone(b.entries)
	if b.sortFunc != nil {
		slices.SortStableFunc(entries, b.sortFunc)
	}
	packer := NewPacker(b.placer)
	for _, e := range entries {
		if _, err := packer.AddTexture(e.ID, e.Texture); err != nil {
			return nil, err
		}
	}
	return packer.Finalize(), nil
}
