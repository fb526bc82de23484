// Package render draws collision grids as PNG images.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/colornames"

	"github.com/Faultbox/tilenav/internal/grid"
)

// Render errors.
var (
	ErrEmptyPlane    = errors.New("no cells on plane")
	ErrImageTooLarge = errors.New("image too large")
)

// Largest image Render will allocate, in pixels.
const maxPixels = 1 << 28

// Palette.
var (
	ColorWalkable  color.RGBA = colornames.Green
	ColorSnipeable color.RGBA = colornames.Gray // walkable with settings 4
	ColorBlocked   color.RGBA = colornames.Black
	ColorEdge      color.RGBA = colornames.Red
	ColorHighlight color.RGBA = colornames.Purple
	ColorRoute     color.RGBA = colornames.Orange
)

// settings code drawn with ColorSnipeable
const snipeableSettings = 4

// Options controls what is drawn.
type Options struct {
	Plane int
	// Zoom is the pixel size of one tile; values below 1 mean 1.
	Zoom int
	// Edges marks blocked edges of walkable tiles.
	Edges bool
	// Highlight fills tiles, e.g. the footprint of selected objects.
	Highlight []grid.Coordinate
	// Route draws waypoints and the straight segments between them.
	Route []grid.Coordinate
}

// Render draws one plane of g. North is up: y grows towards the top of the
// image. Coordinates without a cell stay transparent.
func Render(g *grid.Grid, opts Options) (*image.RGBA, error) {
	minX, minY, maxX, maxY, ok := g.Bounds(opts.Plane)
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrEmptyPlane, opts.Plane)
	}
	zoom := max(opts.Zoom, 1)

	w := (maxX - minX + 1) * zoom
	h := (maxY - minY + 1) * zoom
	if w*h > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, w, h)
	}

	c := &canvas{
		img:  image.NewRGBA(image.Rect(0, 0, w, h)),
		minX: minX,
		maxY: maxY,
		zoom: zoom,
	}

	g.Range(func(cell grid.Cell) bool {
		if cell.Coord.Plane != opts.Plane {
			return true
		}
		c.fill(cell.Coord.X, cell.Coord.Y, baseColor(cell))
		if opts.Edges && cell.Walkable {
			c.edges(cell)
		}
		return true
	})

	for _, p := range opts.Highlight {
		if p.Plane == opts.Plane {
			c.fill(p.X, p.Y, ColorHighlight)
		}
	}

	for i, p := range opts.Route {
		if p.Plane != opts.Plane {
			continue
		}
		if i > 0 && opts.Route[i-1].Plane == opts.Plane {
			c.line(opts.Route[i-1], p, ColorRoute)
		}
		c.fill(p.X, p.Y, ColorRoute)
	}

	return c.img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// RenderFile renders g and writes it to path.
func RenderFile(path string, g *grid.Grid, opts Options) error {
	img, err := Render(g, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	if err := WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func baseColor(cell grid.Cell) color.RGBA {
	switch {
	case cell.Walkable && cell.Settings == snipeableSettings:
		return ColorSnipeable
	case cell.Walkable:
		return ColorWalkable
	default:
		return ColorBlocked
	}
}

type canvas struct {
	img        *image.RGBA
	minX, maxY int
	zoom       int
}

// origin returns the top-left pixel of tile (x, y).
func (c *canvas) origin(x, y int) (px, py int) {
	return (x - c.minX) * c.zoom, (c.maxY - y) * c.zoom
}

func (c *canvas) fill(x, y int, col color.RGBA) {
	px, py := c.origin(x, y)
	for dy := 0; dy < c.zoom; dy++ {
		for dx := 0; dx < c.zoom; dx++ {
			c.img.SetRGBA(px+dx, py+dy, col)
		}
	}
}

func (c *canvas) edges(cell grid.Cell) {
	px, py := c.origin(cell.Coord.X, cell.Coord.Y)
	last := c.zoom - 1
	for k := 0; k < c.zoom; k++ {
		if cell.North {
			c.img.SetRGBA(px+k, py, ColorEdge)
		}
		if cell.South {
			c.img.SetRGBA(px+k, py+last, ColorEdge)
		}
		if cell.West {
			c.img.SetRGBA(px, py+k, ColorEdge)
		}
		if cell.East {
			c.img.SetRGBA(px+last, py+k, ColorEdge)
		}
	}
}

// line fills every tile on the Bresenham line from a to b.
func (c *canvas) line(a, b grid.Coordinate, col color.RGBA) {
	x, y := a.X, a.Y
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	e := dx + dy
	for {
		c.fill(x, y, col)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
