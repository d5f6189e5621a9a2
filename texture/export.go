package texture

import (
	"atlaspacker/rectpack"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"k8s.io/klog/v2"
)

// PNGExporter composes an atlas page from the cropped source regions and
// writes it as <outputPath>.png.
type PNGExporter struct {
	Images *ImageCache
	Filter imaging.ResampleFilter
}

// NewPNGExporter returns an exporter reading source images through images.
func NewPNGExporter(images *ImageCache) *PNGExporter {
	return &PNGExporter{Images: images, Filter: imaging.Lanczos}
}

func (e *PNGExporter) Export(atlas rectpack.Atlas, textures map[string]rectpack.Texture, outputPath string, width, height int) error {
	page, err := e.Compose(atlas, textures, width, height)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	path := outputPath + ".png"
	if err := imaging.Save(page, path); err != nil {
		return errors.Wrapf(err, "save atlas %s", path)
	}
	klog.V(1).Infof("wrote %s with %d textures", path, len(atlas))
	return nil
}

// Compose draws every placement of atlas onto a transparent page.
func (e *PNGExporter) Compose(atlas rectpack.Atlas, textures map[string]rectpack.Texture, width, height int) (*image.NRGBA, error) {
	page := imaging.New(width, height, color.NRGBA{0, 0, 0, 0})
	for _, g := range atlas {
		t, ok := textures[g.ClusterID]
		if !ok {
			return nil, errors.Errorf("texture %s is not registered", g.ClusterID)
		}
		cropped, ok := t.(*CroppedTexture)
		if !ok {
			return nil, errors.Errorf("texture %s has no source image (%T)", g.ClusterID, t)
		}
		src, err := e.Images.Open(cropped.ImagePath)
		if err != nil {
			return nil, errors.Wrapf(err, "texture %s", g.ClusterID)
		}
		region := imaging.Crop(src, cropped.Buffered.Add(src.Bounds().Min))
		if region.Bounds().Dx() != g.Width || region.Bounds().Dy() != g.Height {
			region = imaging.Resize(region, g.Width, g.Height, e.Filter)
		}
		draw.Copy(page, image.Pt(g.Origin.X, g.Origin.Y), region, region.Bounds(), draw.Src, nil)
	}
	return page, nil
}
