package rectpack

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustConfig(t *testing.T, width, height, padding int) PlacerConfig {
	t.Helper()
	config, err := NewPlacerConfig(width, height, padding)
	require.NoError(t, err)
	return config
}

// randomTexture returns a texture within the given minimum and maximum sizes.
func randomTexture(r *rand.Rand, minSize, maxSize Size) *SizedTexture {
	w := r.Intn(maxSize.Width-minSize.Width) + minSize.Width
	h := r.Intn(maxSize.Height-minSize.Height) + minSize.Height
	return NewSizedTexture(w, h)
}

// randomColor (surprise!) returns a random color.
func randomColor(r *rand.Rand) color.RGBA {
	// Offset to use a minimum value so it is never pure black.
	return color.RGBA{
		R: uint8(r.Intn(240)) + 15,
		G: uint8(r.Intn(240)) + 15,
		B: uint8(r.Intn(240)) + 15,
		A: 255,
	}
}

// createImage colorizes the placements of one page to provide a visual
// representation when a test fails.
func createImage(t *testing.T, path string, config PlacerConfig, atlas Atlas) {
	r := rand.New(rand.NewSource(1))
	black := color.RGBA{0, 0, 0, 255}
	img := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{black}, image.Point{}, draw.Src)

	for _, g := range atlas {
		b := g.Bounds()
		rect := image.Rect(b.Left(), b.Top(), b.Right(), b.Bottom())
		draw.Draw(img, rect, &image.Uniform{randomColor(r)}, image.Point{}, draw.Src)
	}

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

// paddedBox is the part of the page a placement reserves.
func paddedBox(config PlacerConfig, g PlacedTextureGeometry) Rect {
	return NewRect(g.Origin.X-config.Padding, g.Origin.Y-config.Padding, g.Width+config.Padding, g.Height+config.Padding)
}

func assertValidPages(t *testing.T, result *PackResult) {
	t.Helper()
	config := result.Config()
	page := NewRect(0, 0, config.Width, config.Height)
	for idx, atlas := range result.Pages() {
		for i := range atlas {
			box := paddedBox(config, atlas[i])
			assert.Truef(t, page.ContainsRect(box), "atlas %d: %s leaves the page", idx, atlas[i].String())
			for j := i + 1; j < len(atlas); j++ {
				other := paddedBox(config, atlas[j])
				if box.Intersects(other) {
					t.Errorf("atlas %d: %s and %s intersect", idx, atlas[i].String(), atlas[j].String())
				}
			}
		}
		if t.Failed() {
			path := filepath.Join(t.TempDir(), fmt.Sprintf("packed_%d.png", idx))
			createImage(t, path, config, atlas)
			t.Logf("wrote %s", path)
		}
	}
}

func TestRandom(t *testing.T) {
	const count = 1024
	for _, strategy := range []Strategy{Guillotine, Tree} {
		for _, padding := range []int{0, 2} {
			t.Run(fmt.Sprintf("%s_padding_%d", strategy, padding), func(t *testing.T) {
				r := rand.New(rand.NewSource(42))
				placer, err := NewPlacer(strategy, mustConfig(t, 1000, 1000, padding))
				require.NoError(t, err)
				packer := NewPacker(placer)

				for i := 0; i < count; i++ {
					_, err := packer.AddTexture(fmt.Sprintf("tex%d", i), randomTexture(r, NewSize(32, 32), NewSize(96, 96)))
					require.NoError(t, err)
				}
				result := packer.Finalize()

				assert.Less(t, result.PageCount(), 16, "too many atlases required")
				placed := 0
				for _, atlas := range result.Pages() {
					placed += len(atlas)
				}
				assert.Equal(t, count, placed)
				assertValidPages(t, result)
			})
		}
	}
}

func TestPacker_OnePerPageWhenTwoCannotShare(t *testing.T) {
	packer := NewPacker(NewGuillotinePlacer(mustConfig(t, 512, 512, 0)))
	for i := 0; i < 4; i++ {
		_, err := packer.AddTexture(fmt.Sprintf("t%d", i), NewSizedTexture(300, 300))
		require.NoError(t, err)
	}
	result := packer.Finalize()

	require.Equal(t, 4, result.PageCount())
	for _, atlas := range result.Pages() {
		assert.Len(t, atlas, 1)
	}
}

func TestPacker_TwoPerPage(t *testing.T) {
	packer := NewPacker(NewGuillotinePlacer(mustConfig(t, 512, 512, 0)))
	for i := 0; i < 4; i++ {
		_, err := packer.AddTexture(fmt.Sprintf("t%d", i), NewSizedTexture(300, 200))
		require.NoError(t, err)
	}
	result := packer.Finalize()

	require.Equal(t, 2, result.PageCount())
	for id, atlas := range result.Pages() {
		require.Len(t, atlas, 2)
		assert.Equal(t, NewPoint(0, 0), atlas[0].Origin)
		assert.Equal(t, NewPoint(0, 200), atlas[1].Origin)
		assert.Equal(t, id, atlas[0].AtlasID)
	}

	info, ok := result.TextureInfo("t3")
	require.True(t, ok)
	assert.Equal(t, 1, info.AtlasID)
	assert.Equal(t, 1, info.Index)
	assert.Equal(t, "t3", info.Geometry.ClusterID)
	_, ok = result.TextureInfo("missing")
	assert.False(t, ok)
}

func TestPacker_TextureLargerThanPage(t *testing.T) {
	packer := NewPacker(NewGuillotinePlacer(mustConfig(t, 512, 512, 0)))
	_, err := packer.AddTexture("huge", NewSizedTexture(600, 600))
	assert.ErrorIs(t, err, ErrTextureTooLarge)
	assert.Equal(t, 0, packer.Finalize().PageCount())

	// padding alone can push a texture over the page
	packer = NewPacker(NewGuillotinePlacer(mustConfig(t, 512, 512, 1)))
	_, err = packer.AddTexture("edge", NewSizedTexture(512, 10))
	assert.ErrorIs(t, err, ErrTextureTooLarge)
}

func TestPacker_TextureLargerThanPageAfterRollover(t *testing.T) {
	packer := NewPacker(NewTreePlacer(mustConfig(t, 512, 512, 0)))
	_, err := packer.AddTexture("small", NewSizedTexture(100, 100))
	require.NoError(t, err)
	_, err = packer.AddTexture("huge", NewSizedTexture(513, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTextureTooLarge))

	result := packer.Finalize()
	require.Equal(t, 1, result.PageCount())
	_, ok := result.Texture("huge")
	assert.False(t, ok)
}

func TestPacker_TextureLargerThanPageKeepsCurrentPage(t *testing.T) {
	for _, strategy := range []Strategy{Guillotine, Tree} {
		t.Run(strategy.String(), func(t *testing.T) {
			placer, err := NewPlacer(strategy, mustConfig(t, 512, 512, 0))
			require.NoError(t, err)
			packer := NewPacker(placer)
			_, err = packer.AddTexture("a", NewSizedTexture(100, 100))
			require.NoError(t, err)
			_, err = packer.AddTexture("huge", NewSizedTexture(600, 600))
			require.ErrorIs(t, err, ErrTextureTooLarge)

			placement, err := packer.AddTexture("b", NewSizedTexture(100, 100))
			require.NoError(t, err)
			assert.Equal(t, 0, placement.Geometry.AtlasID)

			result := packer.Finalize()
			require.Equal(t, 1, result.PageCount())
			page, _ := result.Page(0)
			assert.Len(t, page, 2)
		})
	}
}

func TestPacker_RejectsBadInput(t *testing.T) {
	packer := NewPacker(NewGuillotinePlacer(mustConfig(t, 64, 64, 0)))
	_, err := packer.AddTexture("a", NewSizedTexture(0, 10))
	assert.ErrorIs(t, err, ErrEmptyTexture)

	_, err = packer.AddTexture("a", NewSizedTexture(10, 10))
	require.NoError(t, err)
	_, err = packer.AddTexture("a", NewSizedTexture(10, 10))
	assert.ErrorIs(t, err, ErrDuplicateTexture)
}

func TestPacker_FinalizeHandsOverState(t *testing.T) {
	packer := NewPacker(NewGuillotinePlacer(mustConfig(t, 64, 64, 0)))
	assert.Equal(t, 0, packer.Finalize().PageCount())

	_, err := packer.AddTexture("a", NewSizedTexture(64, 64))
	require.NoError(t, err)
	first := packer.Finalize()
	assert.Equal(t, 1, first.PageCount())

	// the packer starts over, the first result is untouched
	_, err = packer.AddTexture("a", NewSizedTexture(32, 32))
	require.NoError(t, err)
	second := packer.Finalize()
	assert.Equal(t, 1, second.PageCount())
	assert.Equal(t, 64, first.Pages()[0][0].Width)
	assert.Equal(t, 32, second.Pages()[0][0].Width)
}

func TestPacker_ConcurrentAdd(t *testing.T) {
	packer := NewPacker(NewGuillotinePlacer(mustConfig(t, 256, 256, 1)))
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := packer.AddTexture(fmt.Sprintf("t%d", i), NewSizedTexture(40+i%7, 40+i%5))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	result := packer.Finalize()
	placed := 0
	for _, atlas := range result.Pages() {
		placed += len(atlas)
	}
	assert.Equal(t, 64, placed)
	assertValidPages(t, result)
}

func TestPacker_Polygons(t *testing.T) {
	packer := NewPacker(NewGuillotinePlacer(mustConfig(t, 512, 512, 0)))
	poly := ChildUVPolygon{ID: "face", UVs: []UV{{0, 1}, {1, 0}}}
	_, err := packer.AddTexture("a", NewSizedTexture(256, 256, poly))
	require.NoError(t, err)
	placement, err := packer.AddTexture("b", NewSizedTexture(256, 256, poly))
	require.NoError(t, err)

	require.Len(t, placement.Polygons, 1)
	assert.Equal(t, "face", placement.Polygons[0].PolygonID)
	assert.Equal(t, "b", placement.Polygons[0].ClusterID)
	assert.InDelta(t, 0.5, placement.Polygons[0].UVs[0].U, 1e-9)
	assert.InDelta(t, 1.0, placement.Polygons[0].UVs[0].V, 1e-9)
	assert.InDelta(t, 1.0, placement.Polygons[0].UVs[1].U, 1e-9)
	assert.InDelta(t, 0.5, placement.Polygons[0].UVs[1].V, 1e-9)

	result := packer.Finalize()
	assert.Len(t, result.Polygons(), 2)
	assert.InDelta(t, 0.5, result.Utilization(0), 1e-9)
	assert.Zero(t, result.Utilization(3))
}

type recordingExporter struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]bool
}

func (e *recordingExporter) Export(atlas Atlas, textures map[string]Texture, outputPath string, width, height int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paths = append(e.paths, outputPath)
	if e.fail[outputPath] {
		return errors.New("disk full")
	}
	for _, g := range atlas {
		if _, ok := textures[g.ClusterID]; !ok {
			return errors.Errorf("texture %s not registered", g.ClusterID)
		}
	}
	return nil
}

func TestPackResult_ExportIsolatesFailures(t *testing.T) {
	packer := NewPacker(NewGuillotinePlacer(mustConfig(t, 64, 64, 0)))
	for i := 0; i < 3; i++ {
		_, err := packer.AddTexture(fmt.Sprintf("t%d", i), NewSizedTexture(64, 64))
		require.NoError(t, err)
	}
	result := packer.Finalize()
	require.Equal(t, 3, result.PageCount())

	dir := t.TempDir()
	exporter := &recordingExporter{fail: map[string]bool{PagePath(dir, 1): true}}
	report := result.Export(dir, exporter, 2)

	assert.Len(t, exporter.paths, 3)
	require.Len(t, report, 1)
	assert.Contains(t, report, 1)
	assert.ErrorContains(t, report.Err(), "page 1")

	exporter = &recordingExporter{}
	assert.NoError(t, result.Export(dir, exporter, 0).Err())
}
