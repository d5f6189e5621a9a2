package rectpack

import (
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// PackResult 是打包完成后的只读结果。
// Finalize 或 Build 返回后不再修改，因此可以并行导出各个页面
type PackResult struct {
	config    PlacerConfig
	atlases   []Atlas
	textures  map[string]Texture
	locations map[string]TextureLocation
	polygons  []PlacedUVPolygon
}

// TextureInfo 是按纹理ID反查的结果
type TextureInfo struct {
	TextureLocation
	Geometry PlacedTextureGeometry
}

func (r *PackResult) Config() PlacerConfig {
	return r.config
}

func (r *PackResult) PageCount() int {
	return len(r.atlases)
}

// Pages 返回按页面编号排列的页面，切片是共享的，不要修改
func (r *PackResult) Pages() []Atlas {
	return r.atlases
}

// Page 返回一个页面上的放置结果
func (r *PackResult) Page(atlasID int) (Atlas, bool) {
	if atlasID < 0 || atlasID >= len(r.atlases) {
		return nil, false
	}
	return r.atlases[atlasID], true
}

// Texture 返回 id 对应的纹理
func (r *PackResult) Texture(id string) (Texture, bool) {
	t, ok := r.textures[id]
	return t, ok
}

// TextureInfo 返回纹理所在的页面、序号和几何
func (r *PackResult) TextureInfo(id string) (TextureInfo, bool) {
	loc, ok := r.locations[id]
	if !ok {
		return TextureInfo{}, false
	}
	return TextureInfo{TextureLocation: loc, Geometry: r.atlases[loc.AtlasID][loc.Index]}, true
}

// Polygons 按放置顺序返回所有多边形
func (r *PackResult) Polygons() []PlacedUVPolygon {
	return r.polygons
}

// Utilization 返回页面被纹理覆盖的比例(0到1)
func (r *PackResult) Utilization(atlasID int) float64 {
	atlas, ok := r.Page(atlasID)
	if !ok {
		return 0
	}
	used := 0
	for _, g := range atlas {
		used += g.Width * g.Height
	}
	return float64(used) / float64(r.config.Width*r.config.Height)
}

// Exporter 写出一个页面。每个页面在各自的 goroutine 中导出，实现必须支持并发调用
type Exporter interface {
	Export(atlas Atlas, textures map[string]Texture, outputPath string, width, height int) error
}

// ExportReport 记录每个导出失败的页面及其错误
type ExportReport map[int]error

// Err 把报告合并为一个错误，所有页面都写出时返回 nil
func (r ExportReport) Err() error {
	if len(r) == 0 {
		return nil
	}
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return errors.Wrapf(r[ids[0]], "%d of the pages failed to export, first is page %d", len(r), ids[0])
}

// PagePath 返回页面不带扩展名的输出路径
func PagePath(outputDir string, atlasID int) string {
	return filepath.Join(outputDir, strconv.Itoa(atlasID))
}

// Export 并行写出所有页面，最多同时导出 workers 个（小于1时为CPU核心数）。
// 单个页面失败不影响其他页面
func (r *PackResult) Export(outputDir string, exporter Exporter, workers int) ExportReport {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	report := make(ExportReport)
	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)
	for atlasID, atlas := range r.atlases {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(atlasID int, atlas Atlas) {
			defer wg.Done()
			defer func() { <-semaphore }()
			err := exporter.Export(atlas, r.textures, PagePath(outputDir, atlasID), r.config.Width, r.config.Height)
			if err != nil {
				klog.Errorf("export of atlas %d failed: %v", atlasID, err)
				mu.Lock()
				report[atlasID] = err
				mu.Unlock()
			}
		}(atlasID, atlas)
	}
	wg.Wait()
	return report
}
