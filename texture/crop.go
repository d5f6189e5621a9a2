package texture

import (
	"atlaspacker/rectpack"
	"image"
	"math"

	"github.com/pkg/errors"
)

// SourcePolygon is a polygon with UVs in the space of its whole source image.
type SourcePolygon struct {
	ID  string
	UVs []rectpack.UV
}

// CroppedTexture is the part of a source image covered by one or more
// polygons. Only geometry is kept; pixels are read again at export time.
type CroppedTexture struct {
	ImagePath  string
	SourceSize rectpack.Size
	// Bounds is the tight pixel box around the polygons.
	Bounds image.Rectangle
	// Buffered is Bounds grown by the crop buffer and clipped to the image.
	Buffered image.Rectangle
	Factor   DownsampleFactor
	children []rectpack.ChildUVPolygon
}

// Crop builds the cropped texture for polygons sampling the image at path.
// buffer extra pixels are kept around the polygons to avoid bleeding at
// the edges when the atlas is filtered.
func Crop(path string, sourceSize rectpack.Size, factor DownsampleFactor, buffer int, polygons ...SourcePolygon) (*CroppedTexture, error) {
	if sourceSize.Width <= 0 || sourceSize.Height <= 0 {
		return nil, errors.Errorf("source image %s has no pixels", path)
	}
	if len(polygons) == 0 {
		return nil, errors.Errorf("no polygons to crop from %s", path)
	}
	bounds, err := pixelBounds(sourceSize, polygons)
	if err != nil {
		return nil, errors.Wrapf(err, "crop %s", path)
	}
	buffered := bounds.Inset(-max(buffer, 0)).Intersect(image.Rect(0, 0, sourceSize.Width, sourceSize.Height))

	t := &CroppedTexture{
		ImagePath:  path,
		SourceSize: sourceSize,
		Bounds:     bounds,
		Buffered:   buffered,
		Factor:     factor,
		children:   make([]rectpack.ChildUVPolygon, 0, len(polygons)),
	}
	for _, p := range polygons {
		local := make([]rectpack.UV, len(p.UVs))
		for i, uv := range p.UVs {
			local[i] = t.localUV(uv)
		}
		t.children = append(t.children, rectpack.ChildUVPolygon{ID: p.ID, UVs: local})
	}
	return t, nil
}

// pixelBounds returns the pixel box covering every UV, at least one pixel wide and high.
func pixelBounds(size rectpack.Size, polygons []SourcePolygon) (image.Rectangle, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range polygons {
		for _, uv := range p.UVs {
			x, y := rectpack.UVToPixel(uv, size.Width, size.Height)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	if math.IsInf(minX, 1) {
		return image.Rectangle{}, errors.New("polygons have no UV coordinates")
	}
	x0, x1 := clampSpan(math.Floor(minX), math.Ceil(maxX), size.Width)
	y0, y1 := clampSpan(math.Floor(minY), math.Ceil(maxY), size.Height)
	return image.Rect(x0, y0, x1, y1), nil
}

func clampSpan(lo, hi float64, limit int) (int, int) {
	a := int(math.Max(0, math.Min(lo, float64(limit))))
	b := int(math.Max(0, math.Min(hi, float64(limit))))
	if b <= a {
		if a >= limit {
			a = limit - 1
		}
		b = a + 1
	}
	return a, b
}

// localUV maps a source image UV into the buffered box's own UV space.
func (t *CroppedTexture) localUV(uv rectpack.UV) rectpack.UV {
	x, y := rectpack.UVToPixel(uv, t.SourceSize.Width, t.SourceSize.Height)
	return rectpack.UV{
		U: (x - float64(t.Buffered.Min.X)) / float64(t.Buffered.Dx()),
		V: 1 - (y-float64(t.Buffered.Min.Y))/float64(t.Buffered.Dy()),
	}
}

func (t *CroppedTexture) BufferedSize() (int, int) {
	return t.Buffered.Dx(), t.Buffered.Dy()
}

func (t *CroppedTexture) DownsampleFactor() float64 {
	return t.Factor.Value()
}

func (t *CroppedTexture) Polygons() []rectpack.ChildUVPolygon {
	return t.children
}
