package grid

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Grid codec errors.
var (
	ErrInvalidGridMagic       = errors.New("invalid grid magic: expected 'TNGD'")
	ErrUnsupportedGridVersion = errors.New("unsupported grid version")
	ErrTruncatedGridData      = errors.New("truncated grid data")
)

const (
	codecMagic   = "TNGD"
	codecVersion = 1
)

// Cell flag bits in the encoded form.
const (
	bitHasTile = 1 << iota
	bitWalkable
	bitNorth
	bitEast
	bitSouth
	bitWest
)

// Encode serialises the grid. Equal grids always encode to equal bytes.
func Encode(g *Grid) []byte {
	buf := make([]byte, 0, 16+g.Len()*12)
	buf = append(buf, codecMagic...)
	buf = append(buf, codecVersion)
	buf = binary.AppendUvarint(buf, uint64(g.Len()))

	g.Range(func(c Cell) bool {
		buf = binary.AppendVarint(buf, int64(c.Coord.X))
		buf = binary.AppendVarint(buf, int64(c.Coord.Y))
		buf = binary.AppendVarint(buf, int64(c.Coord.Plane))
		buf = binary.AppendVarint(buf, int64(c.Height))
		buf = binary.AppendVarint(buf, int64(c.OverlayID))
		buf = binary.AppendVarint(buf, int64(c.UnderlayID))
		buf = binary.AppendVarint(buf, int64(c.Settings))
		buf = append(buf, cellBits(c))
		buf = binary.AppendUvarint(buf, uint64(len(c.Reasons)))
		for _, r := range c.Reasons {
			buf = binary.AppendUvarint(buf, uint64(len(r)))
			buf = append(buf, r...)
		}
		return true
	})
	return buf
}

// Checksum returns the xxhash of the encoded grid.
func Checksum(g *Grid) uint64 {
	return xxhash.Sum64(Encode(g))
}

// Decode parses bytes produced by Encode.
func Decode(data []byte) (*Grid, error) {
	if len(data) < len(codecMagic)+1 {
		return nil, ErrTruncatedGridData
	}
	if string(data[:len(codecMagic)]) != codecMagic {
		return nil, ErrInvalidGridMagic
	}
	if v := data[len(codecMagic)]; v != codecVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedGridVersion, v)
	}

	r := &reader{data: data[len(codecMagic)+1:]}
	count := r.uvarint()
	if r.err != nil {
		return nil, fmt.Errorf("%w: reading cell count", ErrTruncatedGridData)
	}
	// Each cell encodes to at least nine bytes; reject counts the payload cannot hold.
	if count > uint64(len(r.data)) {
		return nil, fmt.Errorf("%w: %d cells in %d bytes", ErrTruncatedGridData, count, len(r.data))
	}

	cells := make([]Cell, 0, count)
	for i := uint64(0); i < count; i++ {
		var c Cell
		c.Coord.X = r.varint()
		c.Coord.Y = r.varint()
		c.Coord.Plane = r.varint()
		c.Height = r.varint()
		c.OverlayID = r.varint()
		c.UnderlayID = r.varint()
		c.Settings = r.varint()
		setCellBits(&c, r.next())
		n := r.uvarint()
		if r.err == nil && n > uint64(len(r.data)) {
			r.err = ErrTruncatedGridData
		}
		for k := uint64(0); k < n && r.err == nil; k++ {
			c.Reasons = append(c.Reasons, r.str())
		}
		if r.err != nil {
			return nil, fmt.Errorf("%w: cell %d", ErrTruncatedGridData, i)
		}
		cells = append(cells, c)
	}

	return New(cells), nil
}

func cellBits(c Cell) byte {
	var b byte
	if c.HasTile {
		b |= bitHasTile
	}
	if c.Walkable {
		b |= bitWalkable
	}
	if c.North {
		b |= bitNorth
	}
	if c.East {
		b |= bitEast
	}
	if c.South {
		b |= bitSouth
	}
	if c.West {
		b |= bitWest
	}
	return b
}

func setCellBits(c *Cell, b byte) {
	c.HasTile = b&bitHasTile != 0
	c.Walkable = b&bitWalkable != 0
	c.North = b&bitNorth != 0
	c.East = b&bitEast != 0
	c.South = b&bitSouth != 0
	c.West = b&bitWest != 0
}

// reader is a sticky-error cursor over encoded bytes.
type reader struct {
	data []byte
	err  error
}

func (r *reader) varint() int {
	if r.err != nil {
		return 0
	}
	v, n := binary.Varint(r.data)
	if n <= 0 {
		r.err = ErrTruncatedGridData
		return 0
	}
	r.data = r.data[n:]
	return int(v)
}

func (r *reader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data)
	if n <= 0 {
		r.err = ErrTruncatedGridData
		return 0
	}
	r.data = r.data[n:]
	return v
}

func (r *reader) next() byte {
	if r.err != nil {
		return 0
	}
	if len(r.data) == 0 {
		r.err = ErrTruncatedGridData
		return 0
	}
	b := r.data[0]
	r.data = r.data[1:]
	return b
}

func (r *reader) str() string {
	n := r.uvarint()
	if r.err != nil {
		return ""
	}
	if n > uint64(len(r.data)) {
		r.err = ErrTruncatedGridData
		return ""
	}
	s := string(r.data[:n])
	r.data = r.data[n:]
	return s
}
