package main

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/disintegration/imaging"
	"github.com/maruel/natural"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// 解包图集函数：把每个纹理从页面中裁出，保存为 <输出目录>/<纹理ID>.png
func unpack(options *Options) error {
	start := time.Now()
	defer func() {
		klog.V(1).Infof("解包耗时: %s", time.Since(start))
	}()
	if options.UnpackPath == "" {
		return errors.New("未指定解包路径")
	}

	// 读取JSON文件
	jsonData, err := os.ReadFile(options.UnpackPath)
	if err != nil {
		return errors.Wrap(err, "读取图集JSON文件失败")
	}

	// 解析JSON
	var multiAtlasData MultiAtlasData
	if err := json.Unmarshal(jsonData, &multiAtlasData); err != nil {
		return errors.Wrap(err, "解析JSON失败")
	}

	// 创建输出目录
	outputDir := options.OutputDir
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrap(err, "创建输出目录失败")
	}

	count := 0
	atlasDir := filepath.Dir(options.UnpackPath)
	for _, atlas := range multiAtlasData.Atlases {
		// 加载图集图片
		atlasImg, err := imaging.Open(filepath.Join(atlasDir, atlas.AtlasName))
		if err != nil {
			return errors.Wrapf(err, "打开图集图片 %s 失败", atlas.AtlasName)
		}

		names := make([]string, 0, len(atlas.TextureList))
		for name := range atlas.TextureList {
			names = append(names, name)
		}
		sort.Sort(natural.StringSlice(names))

		for _, name := range names {
			outputPath, err := texturePath(outputDir, name)
			if err != nil {
				return err
			}
			r := atlas.TextureList[name].Region
			subImg := imaging.Crop(atlasImg, image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H))
			// 纹理ID中可能带有子目录
			if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
				return errors.Wrap(err, "创建输出子目录失败")
			}
			if err := imaging.Save(subImg, outputPath); err != nil {
				return errors.Wrapf(err, "保存 %s 失败", outputPath)
			}
			count++
		}
		klog.V(2).Infof("unpacked %d textures from %s", len(names), atlas.AtlasName)
	}
	fmt.Printf("图集解包完成，%d 个纹理输出到: %s\n", count, outputDir)
	return nil
}

// texturePath 返回纹理的输出路径；纹理ID不能是绝对路径，也不能跳出输出目录
func texturePath(outputDir, name string) (string, error) {
	file := filepath.FromSlash(name + ".png")
	if !filepath.IsLocal(file) {
		return "", errors.Errorf("纹理ID %q 不是输出目录内的路径", name)
	}
	return filepath.Join(outputDir, file), nil
}
