// Package parallel provides the tile-parallel CPU execution used to march a
// frame.
//
// A frame is split into square tiles of pixels; each tile is one work item
// on a WorkerPool. Tiles cover disjoint pixels, so work items never write
// the same frame cell.
package parallel

// Tile is a rectangular region of a frame in pixel coordinates.
// Edge tiles may be smaller than the nominal tile size.
type Tile struct {
	// Index is the position of the tile in the slice returned by SplitTiles.
	Index int

	// X, Y is the top-left pixel.
	X, Y int

	// Width and Height are the actual extent in pixels.
	Width, Height int
}

// Pixels returns the number of pixels covered by the tile.
func (t Tile) Pixels() int {
	return t.Width * t.Height
}

// Contains reports whether pixel (x, y) lies inside the tile.
func (t Tile) Contains(x, y int) bool {
	return x >= t.X && x < t.X+t.Width && y >= t.Y && y < t.Y+t.Height
}

// Each calls fn for every pixel of the tile, row by row.
func (t Tile) Each(fn func(x, y int)) {
	for y := t.Y; y < t.Y+t.Height; y++ {
		for x := t.X; x < t.X+t.Width; x++ {
			fn(x, y)
		}
	}
}

// SplitTiles divides a width×height frame into tiles of side size, row by
// row. The tiles cover every pixel exactly once. A size below 1 yields a
// single tile spanning the frame.
func SplitTiles(width, height, size int) []Tile {
	if width <= 0 || height <= 0 {
		return nil
	}
	if size < 1 {
		return []Tile{{Width: width, Height: height}}
	}

	cols := (width + size - 1) / size
	rows := (height + size - 1) / size
	tiles := make([]Tile, 0, cols*rows)

	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			x, y := tx*size, ty*size
			tiles = append(tiles, Tile{
				Index:  len(tiles),
				X:      x,
				Y:      y,
				Width:  min(size, width-x),
				Height: min(size, height-y),
			})
		}
	}
	return tiles
}
