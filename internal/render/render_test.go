package render

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/tilenav/internal/grid"
)

// testGrid is three tiles wide and two high on plane 0, with (1,1) missing:
//
//	y=1  W(north edge)  -        -
//	y=0  W              W(s=4)   B
func testGrid() *grid.Grid {
	return grid.New([]grid.Cell{
		{Coord: grid.At(0, 0, 0), HasTile: true, Walkable: true},
		{Coord: grid.At(1, 0, 0), HasTile: true, Walkable: true, Settings: 4},
		{Coord: grid.At(2, 0, 0), HasTile: true, Settings: 1},
		{Coord: grid.At(0, 1, 0), HasTile: true, Walkable: true, North: true},
		{Coord: grid.At(9, 9, 1), HasTile: true, Walkable: true},
	})
}

func TestRender_Colors(t *testing.T) {
	img, err := Render(testGrid(), Options{Zoom: 2, Edges: true})
	require.NoError(t, err)

	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())

	// y is flipped: tile row y=0 is at the bottom.
	assert.Equal(t, ColorWalkable, img.RGBAAt(0, 2))
	assert.Equal(t, ColorWalkable, img.RGBAAt(1, 3))
	assert.Equal(t, ColorSnipeable, img.RGBAAt(2, 2))
	assert.Equal(t, ColorBlocked, img.RGBAAt(4, 2))

	// Missing tile stays transparent.
	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 0))

	// North edge of (0,1) is its top pixel row.
	assert.Equal(t, ColorEdge, img.RGBAAt(0, 0))
	assert.Equal(t, ColorEdge, img.RGBAAt(1, 0))
	assert.Equal(t, ColorWalkable, img.RGBAAt(0, 1))
}

func TestRender_NoEdges(t *testing.T) {
	img, err := Render(testGrid(), Options{Zoom: 2})
	require.NoError(t, err)
	assert.Equal(t, ColorWalkable, img.RGBAAt(0, 0))
}

func TestRender_Overlays(t *testing.T) {
	img, err := Render(testGrid(), Options{
		Zoom:      1,
		Highlight: []grid.Coordinate{grid.At(2, 0, 0), grid.At(2, 0, 1)},
		Route:     []grid.Coordinate{grid.At(0, 1, 0), grid.At(0, 0, 0), grid.At(1, 0, 0)},
	})
	require.NoError(t, err)

	assert.Equal(t, ColorHighlight, img.RGBAAt(2, 1))
	assert.Equal(t, ColorRoute, img.RGBAAt(0, 0))
	assert.Equal(t, ColorRoute, img.RGBAAt(0, 1))
	assert.Equal(t, ColorRoute, img.RGBAAt(1, 1))
}

func TestRender_RouteSegment(t *testing.T) {
	var cells []grid.Cell
	for x := 0; x < 5; x++ {
		for y := 0; y < 3; y++ {
			cells = append(cells, grid.Cell{Coord: grid.At(x, y, 0), HasTile: true, Walkable: true})
		}
	}
	img, err := Render(grid.New(cells), Options{
		Route: []grid.Coordinate{grid.At(0, 0, 0), grid.At(4, 0, 0)},
	})
	require.NoError(t, err)

	for x := 0; x < 5; x++ {
		assert.Equal(t, ColorRoute, img.RGBAAt(x, 2), "tile (%d,0)", x)
	}
	assert.Equal(t, ColorWalkable, img.RGBAAt(2, 1))
}

func TestRender_ZoomDefaults(t *testing.T) {
	img, err := Render(testGrid(), Options{Zoom: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestRender_Planes(t *testing.T) {
	img, err := Render(testGrid(), Options{Plane: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())

	_, err = Render(testGrid(), Options{Plane: 5})
	assert.ErrorIs(t, err, ErrEmptyPlane)
}

func TestWritePNG(t *testing.T) {
	img, err := Render(testGrid(), Options{Zoom: 4})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.png")
	require.NoError(t, RenderFile(path, testGrid(), Options{Zoom: 2}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Width)
	assert.Equal(t, 4, cfg.Height)
}
