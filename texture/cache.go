package texture

import (
	"atlaspacker/rectpack"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

// DefaultImageCacheEntries bounds how many decoded source images stay in memory.
const DefaultImageCacheEntries = 32

// DecodeError reports a source image that could not be read or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// SizeCache remembers the pixel size of source images so that each file
// header is decoded once per run.
type SizeCache struct {
	mu    sync.Mutex
	sizes map[string]rectpack.Size
}

func NewSizeCache() *SizeCache {
	return &SizeCache{sizes: make(map[string]rectpack.Size)}
}

// GetOrInsert returns the size of the image at path, decoding only its header
// on the first call.
func (c *SizeCache) GetOrInsert(path string) (rectpack.Size, error) {
	c.mu.Lock()
	size, ok := c.sizes[path]
	c.mu.Unlock()
	if ok {
		return size, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return rectpack.Size{}, &DecodeError{Path: path, Err: err}
	}
	// Header only; the pixels are decoded at export time.
	cfg, _, err := image.DecodeConfig(file)
	file.Close()
	if err != nil {
		return rectpack.Size{}, &DecodeError{Path: path, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have decoded the same path meanwhile; keep its entry.
	if cached, ok := c.sizes[path]; ok {
		return cached, nil
	}
	size = rectpack.NewSize(cfg.Width, cfg.Height)
	c.sizes[path] = size
	return size, nil
}

// Len returns the number of cached sizes.
func (c *SizeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sizes)
}

// ImageCache keeps recently decoded source images. It is safe for
// concurrent use by page exporters; two exporters missing on the same path
// at once may both decode it.
type ImageCache struct {
	cache *lru.Cache
}

func NewImageCache(entries int) (*ImageCache, error) {
	if entries < 1 {
		entries = DefaultImageCacheEntries
	}
	cache, err := lru.New(entries)
	if err != nil {
		return nil, errors.Wrap(err, "create image cache")
	}
	return &ImageCache{cache: cache}, nil
}

// Open returns the decoded image at path.
func (c *ImageCache) Open(path string) (image.Image, error) {
	if img, ok := c.cache.Get(path); ok {
		return img.(image.Image), nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	c.cache.Add(path, img)
	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	return c.cache.Len()
}
