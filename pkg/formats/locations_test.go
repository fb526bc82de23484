package formats

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLocations(t *testing.T) {
	data := []byte(`[
		{"plane":0,"i":50,"j":53,"x":10,"y":12,"id":1276,"type":10,"rotation":2},
		{"plane":1,"i":51,"j":53,"x":0,"y":63,"id":45156,"type":22,"rotation":0}
	]`)

	locs, err := ParseLocations(data)
	if err != nil {
		t.Fatalf("ParseLocations failed: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locs))
	}

	want := Location{Plane: 0, I: 50, J: 53, X: 10, Y: 12, ID: 1276, Type: 10, Rotation: 2}
	if locs[0] != want {
		t.Errorf("locs[0] = %+v, want %+v", locs[0], want)
	}
	if locs[1].ID != 45156 || locs[1].Y != 63 {
		t.Errorf("locs[1] = %+v", locs[1])
	}
}

func TestParseLocations_Invalid(t *testing.T) {
	if _, err := ParseLocations([]byte(`{"id":1}`)); err == nil {
		t.Error("expected error for non-array input")
	}
}

func TestParseLocations_LenientNumbers(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Location
	}{
		{
			name: "integral floats",
			data: `{"plane":1.0,"i":50.0,"j":53,"x":10,"y":12,"id":1276.0,"type":10,"rotation":2.0}`,
			want: Location{Plane: 1, I: 50, J: 53, X: 10, Y: 12, ID: 1276, Type: 10, Rotation: 2},
		},
		{
			name: "numeric strings",
			data: `{"plane":"0","i":"50","j":"53","x":" 10 ","y":"12","id":"1276","type":"10","rotation":"2"}`,
			want: Location{Plane: 0, I: 50, J: 53, X: 10, Y: 12, ID: 1276, Type: 10, Rotation: 2},
		},
		{
			name: "bad rotation falls back to zero",
			data: `{"plane":0,"i":50,"j":53,"x":10,"y":12,"id":1276,"type":10,"rotation":"north"}`,
			want: Location{Plane: 0, I: 50, J: 53, X: 10, Y: 12, ID: 1276, Type: 10, Rotation: 0},
		},
		{
			name: "fractional and null",
			data: `{"plane":0,"i":50,"j":53,"x":1.5,"y":null,"id":1276,"type":10,"rotation":3}`,
			want: Location{Plane: 0, I: 50, J: 53, X: 0, Y: 0, ID: 1276, Type: 10, Rotation: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs, err := ParseLocations([]byte("[" + tt.data + "]"))
			if err != nil {
				t.Fatalf("ParseLocations failed: %v", err)
			}
			if len(locs) != 1 || locs[0] != tt.want {
				t.Errorf("got %+v, want %+v", locs, tt.want)
			}
		})
	}
}

func TestParseLocationsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "50_53.json")
	if err := os.WriteFile(path, []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}
	locs, err := ParseLocationsFile(path)
	if err != nil {
		t.Fatalf("ParseLocationsFile failed: %v", err)
	}
	if len(locs) != 0 {
		t.Errorf("expected empty list, got %v", locs)
	}
}
