package rectpack

// UVToPixel 把UV（左下角为原点）转换为指定尺寸像素框内的像素偏移（左上角为原点）
func UVToPixel(uv UV, width, height int) (x, y float64) {
	return uv.U * float64(width), (1 - uv.V) * float64(height)
}

// LocalUVToPageUV 把相对于 width x height 裁切纹理的UV转换到页面UV空间。
// slot 是纹理所在空闲矩形的原点，纹理本身再偏移一个间距
func LocalUVToPageUV(config PlacerConfig, slot Point, uv UV, width, height int) UV {
	x, y := UVToPixel(uv, width, height)
	pad := float64(config.Padding)
	return UV{
		U: (float64(slot.X) + pad + x) / float64(config.Width),
		V: 1 - (float64(slot.Y)+pad+y)/float64(config.Height),
	}
}

// PageUVToLocal 是相同 slot 和纹理尺寸下 LocalUVToPageUV 的逆变换
func PageUVToLocal(config PlacerConfig, slot Point, uv UV, width, height int) UV {
	pad := float64(config.Padding)
	x := uv.U*float64(config.Width) - float64(slot.X) - pad
	y := (1-uv.V)*float64(config.Height) - float64(slot.Y) - pad
	return UV{
		U: x / float64(width),
		V: 1 - y/float64(height),
	}
}

// SlotOf 返回放置几何所在空闲矩形的原点
func SlotOf(config PlacerConfig, g PlacedTextureGeometry) Point {
	return NewPoint(g.Origin.X-config.Padding, g.Origin.Y-config.Padding)
}
