package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Tile chunk errors.
var (
	ErrInvalidTileFileName = errors.New("invalid tile file name: expected '<i>_<j>.json'")
	ErrInvalidTileDim      = errors.New("invalid tile dim: expected [planes, width, height]")
	ErrTruncatedTileData   = errors.New("truncated tile data")
)

// TileFileExt is the extension of tile chunk files.
const TileFileExt = ".json"

// RawTile is one terrain record as stored. Every field is optional.
type RawTile struct {
	Shape      *int `json:"shape"`
	OverlayID  *int `json:"overlay_id"`
	UnderlayID *int `json:"underlay_id"`
	Settings   *int `json:"settings"`
	Height     *int `json:"height"`
}

// TileChunk is a parsed chunk file. Tiles are stored plane-major, then x,
// then y.
type TileChunk struct {
	I, J   int
	Planes int
	Width  int
	Height int
	Tiles  []RawTile
}

type tileChunkFile struct {
	Dim  []lenientInt `json:"dim"`
	Data []*RawTile   `json:"data"`
}

// rawTileFile is RawTile as decoded; see lenientInt.
type rawTileFile struct {
	Shape      lenientInt `json:"shape"`
	OverlayID  lenientInt `json:"overlay_id"`
	UnderlayID lenientInt `json:"underlay_id"`
	Settings   lenientInt `json:"settings"`
	Height     lenientInt `json:"height"`
}

// UnmarshalJSON accepts integral floats and numeric strings. Fields holding
// anything else stay nil so their defaults apply.
func (t *RawTile) UnmarshalJSON(data []byte) error {
	var f rawTileFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*t = RawTile{
		Shape:      f.Shape.ptr(),
		OverlayID:  f.OverlayID.ptr(),
		UnderlayID: f.UnderlayID.ptr(),
		Settings:   f.Settings.ptr(),
		Height:     f.Height.ptr(),
	}
	return nil
}

// Index returns the position of (plane, x, y) in Tiles, or -1 if out of bounds.
func (c *TileChunk) Index(plane, x, y int) int {
	if plane < 0 || x < 0 || y < 0 || plane >= c.Planes || x >= c.Width || y >= c.Height {
		return -1
	}
	return (plane*c.Width+x)*c.Height + y
}

// Tile returns the record at (plane, x, y), or nil if out of bounds.
func (c *TileChunk) Tile(plane, x, y int) *RawTile {
	idx := c.Index(plane, x, y)
	if idx < 0 {
		return nil
	}
	return &c.Tiles[idx]
}

// Each calls fn for every tile in storage order.
func (c *TileChunk) Each(fn func(plane, x, y int, t RawTile)) {
	idx := 0
	for plane := 0; plane < c.Planes; plane++ {
		for x := 0; x < c.Width; x++ {
			for y := 0; y < c.Height; y++ {
				fn(plane, x, y, c.Tiles[idx])
				idx++
			}
		}
	}
}

// ParseTileChunkName extracts the chunk indices from a "<i>_<j>.json" name.
func ParseTileChunkName(name string) (i, j int, err error) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, TileFileExt) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileFileName, base)
	}
	left, right, ok := strings.Cut(strings.TrimSuffix(base, TileFileExt), "_")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileFileName, base)
	}
	if i, err = strconv.Atoi(left); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileFileName, base)
	}
	if j, err = strconv.Atoi(right); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileFileName, base)
	}
	return i, j, nil
}

// ParseTileChunk parses a tile chunk from raw bytes. Chunk indices are left
// zero; see ParseTileChunkFile.
func ParseTileChunk(data []byte) (*TileChunk, error) {
	var f tileChunkFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding tile chunk: %w", err)
	}

	dim := make([]int, 0, len(f.Dim))
	for _, d := range f.Dim {
		if !d.set || d.v < 0 {
			return nil, fmt.Errorf("%w: got %s", ErrInvalidTileDim, dimString(f.Dim))
		}
		dim = append(dim, d.v)
	}
	if len(dim) != 3 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTileDim, dimString(f.Dim))
	}
	planes, width, height := dim[0], dim[1], dim[2]

	count := planes * width * height
	if len(f.Data) < count {
		return nil, fmt.Errorf("%w: need %d tiles, have %d", ErrTruncatedTileData, count, len(f.Data))
	}

	chunk := &TileChunk{
		Planes: planes,
		Width:  width,
		Height: height,
		Tiles:  make([]RawTile, count),
	}
	// null entries are tiles with every field missing
	for i := 0; i < count; i++ {
		if f.Data[i] != nil {
			chunk.Tiles[i] = *f.Data[i]
		}
	}

	return chunk, nil
}

func dimString(dim []lenientInt) string {
	parts := make([]string, len(dim))
	for i, d := range dim {
		if d.set {
			parts[i] = strconv.Itoa(d.v)
		} else {
			parts[i] = "?"
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ParseTileChunkFile parses a tile chunk from disk, taking its indices from
// the file name.
func ParseTileChunkFile(path string) (*TileChunk, error) {
	i, j, err := ParseTileChunkName(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tile chunk: %w", err)
	}
	chunk, err := ParseTileChunk(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	chunk.I, chunk.J = i, j
	return chunk, nil
}
