package main

import (
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallel(t *testing.T) {
	for _, n := range []int{0, 1, 3, 100, 1001} {
		hits := make([]int32, n)
		var calls atomic.Int32
		Parallel(0, n, func(i int) {
			atomic.AddInt32(&hits[i], 1)
			calls.Add(1)
		})
		assert.Equal(t, int32(n), calls.Load())
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "index %d of %d", i, n)
		}
	}
}

func TestCountUnusedPixels(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 4; y++ {
			nrgba.SetNRGBA(x, y, color.NRGBA{G: 255, A: 255})
		}
	}
	total, unused := CountUnusedPixels(nrgba)
	assert.Equal(t, 100, total)
	assert.Equal(t, 60, unused)

	// 子图像的 Bounds 不从原点开始
	total, unused = CountUnusedPixels(nrgba.SubImage(image.Rect(0, 2, 10, 6)))
	assert.Equal(t, 40, total)
	assert.Equal(t, 20, unused)

	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	rgba.Set(1, 1, color.White)
	total, unused = CountUnusedPixels(rgba)
	assert.Equal(t, 16, total)
	assert.Equal(t, 15, unused)

	gray := image.NewGray(image.Rect(0, 0, 5, 5))
	total, unused = CountUnusedPixels(gray)
	assert.Equal(t, 25, total)
	assert.Equal(t, 0, unused)

	total, unused = CountUnusedPixels(image.NewNRGBA(image.Rectangle{}))
	assert.Zero(t, total)
	assert.Zero(t, unused)
}
