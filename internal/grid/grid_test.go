package grid

import "testing"

func TestFromChunk(t *testing.T) {
	c := FromChunk(50, 52, 3, 63, 1)
	if c.X != 50*64+3 || c.Y != 52*64+63 || c.Plane != 1 {
		t.Errorf("unexpected coordinate %v", c)
	}

	i, j := c.Chunk()
	if i != 50 || j != 52 {
		t.Errorf("expected chunk (50,52), got (%d,%d)", i, j)
	}
}

func TestChunkRect_Contains(t *testing.T) {
	r := ChunkRect{MinI: 45, MaxI: 55, MinJ: 48, MaxJ: 56}

	tests := []struct {
		i, j int
		want bool
	}{
		{45, 48, true},
		{55, 56, true},
		{44, 50, false},
		{50, 57, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.i, tt.j); got != tt.want {
			t.Errorf("Contains(%d,%d) = %v, want %v", tt.i, tt.j, got, tt.want)
		}
	}
}

func TestPlaneSet(t *testing.T) {
	ps := NewPlaneSet(3, 0, 1, 0)
	if len(ps) != 3 {
		t.Fatalf("expected 3 planes, got %v", ps)
	}
	if !ps.Contains(1) || ps.Contains(2) {
		t.Errorf("unexpected membership for %v", ps)
	}
}

func TestFromRotation(t *testing.T) {
	tests := []struct {
		rotation int
		want     Direction
	}{
		{0, West},
		{1, North},
		{2, East},
		{3, South},
		{4, West},
		{7, West},
		{-1, West},
	}
	for _, tt := range tests {
		if got := FromRotation(tt.rotation); got != tt.want {
			t.Errorf("FromRotation(%d) = %s, want %s", tt.rotation, got, tt.want)
		}
	}
}

func TestDirection_OppositeAndOffset(t *testing.T) {
	for _, d := range []Direction{North, East, South, West} {
		dx, dy := d.Offset()
		ox, oy := d.Opposite().Offset()
		if dx != -ox || dy != -oy {
			t.Errorf("%s and %s are not opposite", d, d.Opposite())
		}
		if d.Opposite().Opposite() != d {
			t.Errorf("double opposite of %s is %s", d, d.Opposite().Opposite())
		}
	}
}

func TestTileRecord_BaseWalkable(t *testing.T) {
	code := func(v int) *int { return &v }

	tests := []struct {
		name     string
		settings *int
		want     bool
	}{
		{"absent", nil, true},
		{"zero", code(0), true},
		{"open 8", code(8), true},
		{"closed 1", code(1), false},
		{"closed 6", code(6), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewTileRecord(At(0, 0, 0))
			rec.Settings = tt.settings
			if got := rec.BaseWalkable(DefaultOpenSettings); got != tt.want {
				t.Errorf("BaseWalkable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTileFlags_Enclosed(t *testing.T) {
	var f TileFlags
	f.Block(North)
	f.Block(East)
	if f.Enclosed() {
		t.Error("N+E should not enclose")
	}
	f.Block(South)
	if !f.Enclosed() {
		t.Error("N+S should enclose")
	}
}

func TestFlagMap_At(t *testing.T) {
	m := FlagMap{}
	c := At(1, 2, 0)
	m.At(c).Block(West)
	m.At(c).AddReason("a")

	if len(m) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m))
	}
	if !m[c].West || len(m[c].Reasons) != 1 {
		t.Errorf("unexpected flags %+v", m[c])
	}
}

func TestGrid_OrderAndLookup(t *testing.T) {
	g := New([]Cell{
		{Coord: At(5, 5, 1), Walkable: true},
		{Coord: At(2, 9, 0)},
		{Coord: At(2, 1, 0), Walkable: true},
	})

	cells := g.Cells()
	want := []Coordinate{At(2, 1, 0), At(2, 9, 0), At(5, 5, 1)}
	for i, c := range cells {
		if c.Coord != want[i] {
			t.Errorf("cell %d: expected %v, got %v", i, want[i], c.Coord)
		}
	}

	if !g.Walkable(2, 1, 0) {
		t.Error("expected (2,1,0) walkable")
	}
	if g.Walkable(2, 9, 0) {
		t.Error("expected (2,9,0) blocked")
	}
	if g.Walkable(100, 100, 0) {
		t.Error("expected missing cell to be blocked")
	}

	planes := g.Planes()
	if len(planes) != 2 || planes[0] != 0 || planes[1] != 1 {
		t.Errorf("unexpected planes %v", planes)
	}
}

func TestGrid_DuplicateLaterWins(t *testing.T) {
	g := New([]Cell{
		{Coord: At(0, 0, 0), Walkable: false},
		{Coord: At(0, 0, 0), Walkable: true},
	})
	if g.Len() != 1 {
		t.Fatalf("expected 1 cell, got %d", g.Len())
	}
	if !g.Walkable(0, 0, 0) {
		t.Error("expected later cell to win")
	}
}

func TestGrid_Bounds(t *testing.T) {
	g := New([]Cell{
		{Coord: At(3, 7, 0)},
		{Coord: At(-2, 4, 0)},
		{Coord: At(9, 9, 1)},
	})

	minX, minY, maxX, maxY, ok := g.Bounds(0)
	if !ok {
		t.Fatal("expected bounds for plane 0")
	}
	if minX != -2 || minY != 4 || maxX != 3 || maxY != 7 {
		t.Errorf("unexpected bounds (%d,%d)-(%d,%d)", minX, minY, maxX, maxY)
	}

	if _, _, _, _, ok := g.Bounds(2); ok {
		t.Error("expected no bounds for empty plane")
	}
}

func TestGrid_Summarize(t *testing.T) {
	g := New([]Cell{
		{Coord: At(0, 0, 0), HasTile: true, Walkable: true},
		{Coord: At(1, 0, 0), HasTile: true},
		{Coord: At(2, 0, 1)},
	})
	s := g.Summarize()
	if s.Cells != 3 || s.Walkable != 1 || s.Orphans != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.PerPlane[0] != 2 || s.PerPlane[1] != 1 {
		t.Errorf("unexpected per-plane counts %v", s.PerPlane)
	}
}

func TestCell_DebugReason(t *testing.T) {
	c := Cell{Reasons: []string{"Object:1 rotation:0 dim:1x1", "Roof: Object:2"}}
	if got := c.DebugReason(); got != "Object:1 rotation:0 dim:1x1; Roof: Object:2" {
		t.Errorf("unexpected debug reason %q", got)
	}
}
