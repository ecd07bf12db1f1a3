package parallel

import "testing"

func TestSplitTiles_CoversEveryPixelOnce(t *testing.T) {
	tests := []struct {
		name                string
		width, height, size int
		wantTiles           int
	}{
		{"exact", 64, 64, 16, 16},
		{"ragged", 150, 150, 16, 100},
		{"single pixel", 1, 1, 16, 1},
		{"tile larger than frame", 10, 7, 32, 1},
		{"non-square", 40, 20, 16, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := SplitTiles(tt.width, tt.height, tt.size)
			if len(tiles) != tt.wantTiles {
				t.Errorf("len(tiles) = %d, want %d", len(tiles), tt.wantTiles)
			}

			hits := make([]int, tt.width*tt.height)
			for i, tile := range tiles {
				if tile.Index != i {
					t.Errorf("tiles[%d].Index = %d", i, tile.Index)
				}
				tile.Each(func(x, y int) {
					hits[y*tt.width+x]++
				})
			}
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("pixel %d covered %d times, want 1", i, h)
				}
			}
		})
	}
}

func TestSplitTiles_EdgeTileSize(t *testing.T) {
	tiles := SplitTiles(20, 20, 16)
	last := tiles[len(tiles)-1]

	if last.X != 16 || last.Y != 16 {
		t.Errorf("last tile origin = (%d, %d), want (16, 16)", last.X, last.Y)
	}
	if last.Width != 4 || last.Height != 4 {
		t.Errorf("last tile size = %dx%d, want 4x4", last.Width, last.Height)
	}
	if last.Pixels() != 16 {
		t.Errorf("Pixels() = %d, want 16", last.Pixels())
	}
}

func TestSplitTiles_Degenerate(t *testing.T) {
	if tiles := SplitTiles(0, 10, 16); tiles != nil {
		t.Errorf("SplitTiles(0, 10) = %v, want nil", tiles)
	}

	tiles := SplitTiles(10, 10, 0)
	if len(tiles) != 1 || tiles[0].Width != 10 || tiles[0].Height != 10 {
		t.Errorf("SplitTiles(size 0) = %+v, want one full tile", tiles)
	}
}

func TestTile_Contains(t *testing.T) {
	tile := Tile{X: 16, Y: 32, Width: 16, Height: 8}

	tests := []struct {
		x, y int
		want bool
	}{
		{16, 32, true},
		{31, 39, true},
		{32, 32, false},
		{16, 40, false},
		{15, 33, false},
	}
	for _, tt := range tests {
		if got := tile.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}
