package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseTileChunkName(t *testing.T) {
	tests := []struct {
		name    string
		wantI   int
		wantJ   int
		wantErr bool
	}{
		{"50_53.json", 50, 53, false},
		{"/data/tiles/0_0.json", 0, 0, false},
		{"50-53.json", 0, 0, true},
		{"50_53.dat", 0, 0, true},
		{"a_1.json", 0, 0, true},
		{"1_b.json", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, j, err := ParseTileChunkName(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTileFileName) {
					t.Errorf("expected ErrInvalidTileFileName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if i != tt.wantI || j != tt.wantJ {
				t.Errorf("got (%d,%d), want (%d,%d)", i, j, tt.wantI, tt.wantJ)
			}
		})
	}
}

func TestParseTileChunk_Order(t *testing.T) {
	// 2 planes, 2 wide, 1 high: plane-major, then x, then y.
	data := []byte(`{"dim":[2,2,1],"data":[
		{"height":1},
		{"height":2},
		{"height":3,"settings":1},
		{"height":4,"overlay_id":7,"underlay_id":8,"shape":10}
	]}`)

	chunk, err := ParseTileChunk(data)
	if err != nil {
		t.Fatalf("ParseTileChunk failed: %v", err)
	}

	if chunk.Planes != 2 || chunk.Width != 2 || chunk.Height != 1 {
		t.Errorf("dims = %d,%d,%d; want 2,2,1", chunk.Planes, chunk.Width, chunk.Height)
	}

	if h := *chunk.Tile(0, 1, 0).Height; h != 2 {
		t.Errorf("plane 0 x 1 height = %d, want 2", h)
	}
	tile := chunk.Tile(1, 0, 0)
	if *tile.Height != 3 || tile.Settings == nil || *tile.Settings != 1 {
		t.Errorf("plane 1 x 0 = %+v, want height 3 settings 1", tile)
	}
	tile = chunk.Tile(1, 1, 0)
	if *tile.OverlayID != 7 || *tile.UnderlayID != 8 || *tile.Shape != 10 {
		t.Errorf("plane 1 x 1 = %+v", tile)
	}
	if chunk.Tile(0, 0, 0).Settings != nil {
		t.Error("missing settings should stay nil")
	}
	if chunk.Tile(2, 0, 0) != nil || chunk.Tile(0, 2, 0) != nil || chunk.Tile(0, 0, -1) != nil {
		t.Error("out of bounds lookups should return nil")
	}

	var visited []int
	chunk.Each(func(plane, x, y int, tile RawTile) {
		visited = append(visited, *tile.Height)
	})
	for i, h := range visited {
		if h != i+1 {
			t.Errorf("Each order = %v, want [1 2 3 4]", visited)
			break
		}
	}
}

func TestParseTileChunk_NullTiles(t *testing.T) {
	chunk, err := ParseTileChunk([]byte(`{"dim":[1,1,2],"data":[null,{"settings":0}]}`))
	if err != nil {
		t.Fatalf("ParseTileChunk failed: %v", err)
	}
	tile := chunk.Tile(0, 0, 0)
	if tile.Height != nil || tile.Settings != nil {
		t.Errorf("null tile = %+v, want all fields nil", tile)
	}
}

func TestParseTileChunk_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"short dim", `{"dim":[1,2],"data":[]}`, ErrInvalidTileDim},
		{"negative dim", `{"dim":[1,-2,2],"data":[]}`, ErrInvalidTileDim},
		{"truncated", `{"dim":[1,2,2],"data":[{},{},{}]}`, ErrTruncatedTileData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTileChunk([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := ParseTileChunk([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseTileChunkFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "48_50.json")
	if err := os.WriteFile(path, []byte(`{"dim":[1,1,1],"data":[{"settings":2}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	chunk, err := ParseTileChunkFile(path)
	if err != nil {
		t.Fatalf("ParseTileChunkFile failed: %v", err)
	}
	if chunk.I != 48 || chunk.J != 50 {
		t.Errorf("indices = %d_%d, want 48_50", chunk.I, chunk.J)
	}

	if _, err := ParseTileChunkFile(filepath.Join(dir, "1_1.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseTileChunk_LenientNumbers(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name string
		tile string
		want *int // settings
	}{
		{"integer", `{"settings":1}`, intPtr(1)},
		{"integral float", `{"settings":1.0}`, intPtr(1)},
		{"numeric string", `{"settings":"2"}`, intPtr(2)},
		{"fractional float", `{"settings":1.5}`, nil},
		{"word", `{"settings":"open"}`, nil},
		{"bool", `{"settings":true}`, nil},
		{"object", `{"settings":{"v":1}}`, nil},
		{"null", `{"settings":null}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`{"dim":[1.0,"1",1],"data":[` + tt.tile + `]}`)
			chunk, err := ParseTileChunk(data)
			if err != nil {
				t.Fatalf("ParseTileChunk failed: %v", err)
			}
			got := chunk.Tile(0, 0, 0).Settings
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("settings = %d, want unset", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("settings = %v, want %d", got, *tt.want)
			}
		})
	}
}

func TestParseTileChunk_LenientFields(t *testing.T) {
	data := []byte(`{"dim":[1,1,1],"data":[
		{"height":"-3","overlay_id":7.0,"underlay_id":"x","shape":10}
	]}`)

	chunk, err := ParseTileChunk(data)
	if err != nil {
		t.Fatalf("ParseTileChunk failed: %v", err)
	}
	tile := chunk.Tile(0, 0, 0)
	if tile.Height == nil || *tile.Height != -3 {
		t.Errorf("height = %v, want -3", tile.Height)
	}
	if tile.OverlayID == nil || *tile.OverlayID != 7 {
		t.Errorf("overlay_id = %v, want 7", tile.OverlayID)
	}
	if tile.UnderlayID != nil {
		t.Errorf("underlay_id = %d, want unset", *tile.UnderlayID)
	}
	if tile.Shape == nil || *tile.Shape != 10 {
		t.Errorf("shape = %v, want 10", tile.Shape)
	}
}

func TestParseTileChunk_BadDimValue(t *testing.T) {
	for _, data := range []string{
		`{"dim":[1,1.5,1],"data":[{}]}`,
		`{"dim":[1,"wide",1],"data":[{}]}`,
	} {
		if _, err := ParseTileChunk([]byte(data)); !errors.Is(err, ErrInvalidTileDim) {
			t.Errorf("%s: expected ErrInvalidTileDim, got %v", data, err)
		}
	}
}
