package main

import (
	"fmt"
	"image"
	"runtime"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Parallel 把 [start, end) 分批交给 CPU 核心数个 goroutine 执行 fn(i)
func Parallel(start, end int, fn func(i int)) {
	numGoroutines := runtime.NumCPU()
	if end-start < numGoroutines {
		// 如果任务数量少于CPU核心数，直接顺序执行
		for i := start; i < end; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	batchSize := (end - start + numGoroutines - 1) / numGoroutines
	for i := start; i < end; i += batchSize {
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			for j := from; j < to && j < end; j++ {
				fn(j)
			}
		}(i, i+batchSize)
	}
	wg.Wait()
}

// CountUnusedPixels 统计图像中完全透明（未被任何纹理覆盖）的像素
func CountUnusedPixels(img image.Image) (total, unused int) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0, 0
	}
	total = bounds.Dx() * bounds.Dy()
	switch src := img.(type) {
	case *image.NRGBA:
		// 直接访问alpha通道
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			i := src.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				if src.Pix[i+3] == 0 {
					unused++
				}
				i += 4
			}
		}
	case *image.RGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			i := src.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				if src.Pix[i+3] == 0 {
					unused++
				}
				i += 4
			}
		}
	default:
		// 通用处理方式
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
					unused++
				}
			}
		}
	}
	return total, unused
}

// reportUnusedPixels 打印每个页面的未使用像素数量
func reportUnusedPixels(atlasImagePaths map[int]string) error {
	ids := make([]int, 0, len(atlasImagePaths))
	for id := range atlasImagePaths {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		img, err := imaging.Open(atlasImagePaths[id])
		if err != nil {
			return errors.Wrapf(err, "open atlas %d", id)
		}
		total, unused := CountUnusedPixels(img)
		fmt.Printf("- 页面 #%d: 未使用像素 %d / %d (%.2f%%)\n", id, unused, total, float64(unused)/float64(total)*100)
	}
	return nil
}
