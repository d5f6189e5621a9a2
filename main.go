package main

import (
	"atlaspacker/rectpack"
	"atlaspacker/texture"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	VERSION = "0.1.0"
	// MetadataFile 是图集元数据的文件名
	MetadataFile = "atlases.json"
)

var debugInfo DebugInfo

type DebugInfo struct {
	TotalTime      time.Duration
	CropTime       time.Duration
	PackTime       time.Duration
	ExportTime     time.Duration
	CreateJsonTime time.Duration
}

// ManifestPolygon 是清单中的一个多边形
//
//	uv 以整张源图为空间，左下角为原点；
//	cluster 相同的多边形会被裁切进同一个纹理
type ManifestPolygon struct {
	ID         string       `json:"id"`
	Cluster    string       `json:"cluster,omitempty"`
	Texture    string       `json:"texture"`
	UV         [][2]float64 `json:"uv"`
	Downsample float64      `json:"downsample,omitempty"`
}

// Manifest 是打包的输入
type Manifest struct {
	Polygons []ManifestPolygon `json:"polygons"`
}

// cluster 是一组共享同一个裁切纹理的多边形
type cluster struct {
	ID         string
	Texture    string
	Downsample float64
	Polygons   []texture.SourcePolygon
}

// Region 是一个像素矩形
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// TextureInfo 记录一个纹理在图集中的位置以及它在源图中的区域
type TextureInfo struct {
	Source     string  `json:"source"`
	Region     Region  `json:"region"`
	SourceRect Region  `json:"sourceRect"`
	Downsample float64 `json:"downsample"`
}

// AtlasInfo 是一个页面的元数据
type AtlasInfo struct {
	AtlasID     int                        `json:"atlasId"`
	AtlasName   string                     `json:"atlasName"`
	Utilization float64                    `json:"utilization"`
	TextureList map[string]TextureInfo     `json:"textureList"`
	Polygons    []rectpack.PlacedUVPolygon `json:"polygons"`
}

// MultiAtlasData 存储多个图集的信息
type MultiAtlasData struct {
	Meta struct {
		Version   string `json:"version"`
		Timestamp string `json:"timestamp"`
	} `json:"meta"`
	PageSize struct {
		W int `json:"w"`
		H int `json:"h"`
	} `json:"pageSize"`
	Padding int         `json:"padding"`
	Atlases []AtlasInfo `json:"atlases"`
}

// loadManifest 读取清单，相对的纹理路径以清单所在目录为基准
func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrapf(err, "parse manifest %s", path)
	}
	if len(manifest.Polygons) == 0 {
		return nil, errors.Errorf("manifest %s has no polygons", path)
	}
	baseDir := filepath.Dir(path)
	for i := range manifest.Polygons {
		p := &manifest.Polygons[i]
		if p.ID == "" {
			return nil, errors.Errorf("polygon #%d has no id", i)
		}
		if p.Texture == "" {
			return nil, errors.Errorf("polygon %s has no texture", p.ID)
		}
		if !filepath.IsAbs(p.Texture) {
			p.Texture = filepath.Join(baseDir, p.Texture)
		}
	}
	return &manifest, nil
}

// groupClusters 按 cluster 字段分组，保持首次出现的顺序
func groupClusters(polygons []ManifestPolygon, downsample float64) ([]cluster, error) {
	clusters := make([]cluster, 0, len(polygons))
	index := make(map[string]int)
	seen := make(map[string]struct{}, len(polygons))
	for _, p := range polygons {
		if _, ok := seen[p.ID]; ok {
			return nil, errors.Errorf("duplicate polygon id %s", p.ID)
		}
		seen[p.ID] = struct{}{}

		id := p.Cluster
		if id == "" {
			id = p.ID
		}
		uvs := make([]rectpack.UV, len(p.UV))
		for i, uv := range p.UV {
			uvs[i] = rectpack.UV{U: uv[0], V: uv[1]}
		}
		polygon := texture.SourcePolygon{ID: p.ID, UVs: uvs}

		if i, ok := index[id]; ok {
			if clusters[i].Texture != p.Texture {
				return nil, errors.Errorf("cluster %s mixes %s and %s", id, clusters[i].Texture, p.Texture)
			}
			clusters[i].Polygons = append(clusters[i].Polygons, polygon)
			continue
		}
		factor := downsample
		if p.Downsample > 0 {
			factor = p.Downsample
		}
		index[id] = len(clusters)
		clusters = append(clusters, cluster{
			ID:         id,
			Texture:    p.Texture,
			Downsample: factor,
			Polygons:   []texture.SourcePolygon{polygon},
		})
	}
	return clusters, nil
}

// cropTextures 并行读取源图尺寸并裁切出每个分组的纹理
func cropTextures(clusters []cluster, buffer int) ([]*texture.CroppedTexture, error) {
	start := time.Now()
	defer func() {
		debugInfo.CropTime += time.Since(start)
	}()
	sizes := texture.NewSizeCache()
	textures := make([]*texture.CroppedTexture, len(clusters))
	errs := make([]error, len(clusters))
	Parallel(0, len(clusters), func(i int) {
		c := clusters[i]
		size, err := sizes.GetOrInsert(c.Texture)
		if err != nil {
			errs[i] = err
			return
		}
		textures[i], errs[i] = texture.Crop(c.Texture, size, texture.NewDownsampleFactor(c.Downsample), buffer, c.Polygons...)
	})
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "cluster %s", clusters[i].ID)
		}
	}
	klog.V(2).Infof("cropped %d textures from %d source images", len(textures), sizes.Len())
	return textures, nil
}

// newPlacer 根据配置创建放置算法
func newPlacer(options *Options) (rectpack.Placer, error) {
	strategy, err := rectpack.ResolveStrategy(options.Strategy)
	if err != nil {
		return nil, err
	}
	config, err := rectpack.NewPlacerConfig(options.PageWidth, options.PageHeight, options.Padding)
	if err != nil {
		return nil, err
	}
	return rectpack.NewPlacer(strategy, config)
}

func packing(clusters []cluster, textures []*texture.CroppedTexture, options *Options) (*rectpack.PackResult, error) {
	start := time.Now()
	defer func() {
		debugInfo.PackTime += time.Since(start)
	}()
	placer, err := newPlacer(options)
	if err != nil {
		return nil, err
	}
	sortFunc, ok := rectpack.ResolveSortFunc(options.Order)
	if !ok {
		return nil, errors.Errorf("unknown order %q", options.Order)
	}
	builder := rectpack.NewBuilder(placer)
	builder.SortBy(sortFunc)
	for i, c := range clusters {
		if err := builder.Add(c.ID, textures[i]); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}

// outputResult 输出打包结果
func outputResult(result *rectpack.PackResult) {
	page := result.Config().PageSize()
	fmt.Printf("页面大小: %dx%d\n", page.Width, page.Height)
	fmt.Printf("页面数量: %d\n", result.PageCount())
	for i, atlas := range result.Pages() {
		fmt.Printf("- 页面 #%d: %d 个纹理, 空间利用率 %.2f%%\n", i, len(atlas), result.Utilization(i)*100)
	}
}

// exportAtlases 并行写出所有页面，返回成功写出的页面路径
func exportAtlases(result *rectpack.PackResult, options *Options) (map[int]string, rectpack.ExportReport, error) {
	start := time.Now()
	defer func() {
		debugInfo.ExportTime += time.Since(start)
	}()
	images, err := texture.NewImageCache(options.ImageCacheEntries)
	if err != nil {
		return nil, nil, err
	}
	report := result.Export(options.OutputDir, texture.NewPNGExporter(images), options.ExportWorkers)
	paths := make(map[int]string, result.PageCount())
	for i := range result.Pages() {
		if _, failed := report[i]; !failed {
			paths[i] = rectpack.PagePath(options.OutputDir, i) + ".png"
		}
	}
	return paths, report, nil
}

// generateMultiAtlasJSON 生成包含多个图集信息的JSON元数据，只记录成功写出的页面
func generateMultiAtlasJSON(result *rectpack.PackResult, atlasImagePaths map[int]string, outputPath string) error {
	start := time.Now()
	defer func() {
		debugInfo.CreateJsonTime = time.Since(start)
	}()
	config := result.Config()
	var data MultiAtlasData
	data.Meta.Version = VERSION
	data.Meta.Timestamp = time.Now().Format("2006-01-02 15:04:05")
	data.PageSize.W = config.Width
	data.PageSize.H = config.Height
	data.Padding = config.Padding

	polygons := make(map[int][]rectpack.PlacedUVPolygon)
	for _, p := range result.Polygons() {
		polygons[p.AtlasID] = append(polygons[p.AtlasID], p)
	}
	for atlasID, atlas := range result.Pages() {
		path, ok := atlasImagePaths[atlasID]
		if !ok {
			continue
		}
		info := AtlasInfo{
			AtlasID:     atlasID,
			AtlasName:   filepath.Base(path),
			Utilization: result.Utilization(atlasID),
			TextureList: make(map[string]TextureInfo, len(atlas)),
			Polygons:    polygons[atlasID],
		}
		for _, g := range atlas {
			t := TextureInfo{
				Region: Region{X: g.Origin.X, Y: g.Origin.Y, W: g.Width, H: g.Height},
			}
			if tex, ok := result.Texture(g.ClusterID); ok {
				t.Downsample = tex.DownsampleFactor()
				if cropped, ok := tex.(*texture.CroppedTexture); ok {
					t.Source = cropped.ImagePath
					b := cropped.Buffered
					t.SourceRect = Region{X: b.Min.X, Y: b.Min.Y, W: b.Dx(), H: b.Dy()}
				}
			}
			info.TextureList[g.ClusterID] = t
		}
		data.Atlases = append(data.Atlases, info)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, jsonData, 0644)
}

// run 执行完整的打包流程：读取清单、裁切、放置、导出页面和元数据
func run(options *Options) error {
	if options.Manifest == "" {
		return errors.New("no manifest given, use -manifest or the config file")
	}
	manifest, err := loadManifest(options.Manifest)
	if err != nil {
		return err
	}
	clusters, err := groupClusters(manifest.Polygons, options.Downsample)
	if err != nil {
		return err
	}
	fmt.Printf("读取 %d 个多边形, %d 个纹理\n", len(manifest.Polygons), len(clusters))

	textures, err := cropTextures(clusters, options.Buffer)
	if err != nil {
		return err
	}
	result, err := packing(clusters, textures, options)
	if err != nil {
		return err
	}
	outputResult(result)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	paths, report, err := exportAtlases(result, options)
	if err != nil {
		return err
	}
	for atlasID, exportErr := range report {
		fmt.Printf("生成图集 #%d 失败: %v\n", atlasID, exportErr)
	}

	multiAtlasJsonPath := filepath.Join(options.OutputDir, MetadataFile)
	if err := generateMultiAtlasJSON(result, paths, multiAtlasJsonPath); err != nil {
		return errors.Wrap(err, "write metadata")
	}
	fmt.Printf("- 图集元数据: %s\n", multiAtlasJsonPath)

	if options.UnusedPixels {
		if err := reportUnusedPixels(paths); err != nil {
			return err
		}
	}
	return report.Err()
}

func printDebugInfo() {
	klog.V(1).Infof("裁切耗时: %v", debugInfo.CropTime)
	klog.V(1).Infof("算法耗时: %v", debugInfo.PackTime)
	klog.V(1).Infof("图集导出耗时: %v", debugInfo.ExportTime)
	klog.V(1).Infof("JSON元数据创建耗时: %v", debugInfo.CreateJsonTime)
	klog.V(1).Infof("总耗时: %v", debugInfo.TotalTime)
}

func main() {
	klog.InitFlags(nil)
	options, err := parseOptions(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", err)
		os.Exit(2)
	}

	if options.SaveConfig != "" {
		if err := writeConfig(options.SaveConfig, options); err != nil {
			fmt.Fprintf(os.Stderr, "保存配置失败: %v\n", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	if options.UnpackPath != "" {
		err = unpack(&options)
	} else {
		err = run(&options)
	}
	debugInfo.TotalTime = time.Since(start)
	printDebugInfo()
	klog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
