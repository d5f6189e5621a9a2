package rectpack

import "github.com/pkg/errors"

var (
	// ErrInvalidPageSize 页面尺寸无法取整为2的幂
	ErrInvalidPageSize = errors.New("page size is not representable as a power of two")
	// ErrNoFit 没有任何空闲矩形能容纳纹理
	ErrNoFit = errors.New("no free rectangle can hold the texture")
	// ErrTextureTooLarge 纹理连空页面都放不下
	ErrTextureTooLarge = errors.New("texture is larger than the page")
	// ErrEmptyTexture 纹理宽或高不大于0
	ErrEmptyTexture = errors.New("texture has no area")
	// ErrDuplicateTexture 同一个纹理ID被加入两次
	ErrDuplicateTexture = errors.New("texture id already added")
)
