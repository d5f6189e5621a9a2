package rectpack

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_FourQuarters(t *testing.T) {
	placer := NewTreePlacer(mustConfig(t, 512, 512, 0))
	quarter := NewSizedTexture(256, 256)

	var origins []Point
	for i := 0; i < 4; i++ {
		require.True(t, placer.CanPlace(quarter))
		placement, err := placer.PlaceTexture(quarter, fmt.Sprintf("q%d", i), 0)
		require.NoError(t, err)
		origins = append(origins, placement.Geometry.Origin)
	}

	assert.Equal(t, []Point{{0, 0}, {256, 0}, {0, 256}, {256, 256}}, origins)
	assert.Empty(t, placer.Leaves())
	assert.False(t, placer.CanPlace(NewSizedTexture(1, 1)))

	_, err := placer.PlaceTexture(quarter, "q4", 0)
	assert.ErrorIs(t, err, ErrNoFit)
}

func TestTree_CanPlaceDoesNotSplit(t *testing.T) {
	placer := NewTreePlacer(mustConfig(t, 128, 128, 1))
	assert.True(t, placer.CanPlace(NewSizedTexture(127, 127)))
	assert.False(t, placer.CanPlace(NewSizedTexture(128, 1)))
	assert.Equal(t, []Rect{NewRect(0, 0, 128, 128)}, placer.Leaves())
}

func TestTree_PaddingAndReset(t *testing.T) {
	placer := NewTreePlacer(mustConfig(t, 128, 128, 2))
	placement, err := placer.PlaceTexture(NewSizedTexture(30, 20), "a", 3)
	require.NoError(t, err)
	assert.Equal(t, NewPoint(2, 2), placement.Geometry.Origin)
	assert.Equal(t, 3, placement.Geometry.AtlasID)
	for _, leaf := range placer.Leaves() {
		assert.False(t, leaf.Intersects(NewRect(0, 0, 32, 22)), "leaf %s overlaps the placement", leaf.String())
	}

	placer.Reset()
	assert.Equal(t, []Rect{NewRect(0, 0, 128, 128)}, placer.Leaves())
}
