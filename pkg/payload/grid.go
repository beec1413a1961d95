package payload

// Grid is a Width x Height array of cells stored row by row. The zero value
// has no cells and ignores lines until an Init arrives.
type Grid struct {
	width  int
	height int
	cells  []RGB
}

// Apply updates the grid with a decoded message and reports whether any cell
// changed. Values other than *Init and *Line are ignored.
func (g *Grid) Apply(v any) bool {
	switch m := v.(type) {
	case *Init:
		return g.resize(m.Width, m.Height)
	case *Line:
		return g.paint(m.Y, m.Colors)
	default:
		return false
	}
}

func (g *Grid) resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if width == g.width && height == g.height {
		return false
	}

	g.width, g.height = width, height
	g.cells = make([]RGB, width*height)
	for i := range g.cells {
		g.cells[i] = Grey
	}
	return true
}

func (g *Grid) paint(y int, colors []RGB) bool {
	if g.cells == nil || y < 0 || len(colors) == 0 {
		return false
	}

	offset := y * g.width
	if offset >= len(g.cells) {
		return false
	}
	n := copy(g.cells[offset:], colors)
	return n > 0
}

// Size returns the grid dimensions.
func (g *Grid) Size() (width, height int) {
	return g.width, g.height
}

// At returns the colour at column x of row y, and false when out of range.
func (g *Grid) At(x, y int) (RGB, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return RGB{}, false
	}
	return g.cells[y*g.width+x], true
}
