package layout

// Point is a grid cell. X grows to the right, Y grows downwards.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// grid is an occupancy map with a fixed number of rows and as many columns as
// needed.
type grid struct {
	height int
	cols   [][]bool
}

func newGrid(height int) *grid {
	return &grid{height: height}
}

func (g *grid) occupied(p Point) bool {
	if p.X < 0 || p.X >= len(g.cols) {
		return false
	}
	return g.cols[p.X][p.Y]
}

func (g *grid) mark(p Point) {
	for len(g.cols) <= p.X {
		g.cols = append(g.cols, make([]bool, g.height))
	}
	g.cols[p.X][p.Y] = true
}

// firstFree returns the first free row of the leftmost column that still has
// one, opening a new column when all are full.
func (g *grid) firstFree() Point {
	for x, col := range g.cols {
		for y, used := range col {
			if !used {
				return Point{X: x, Y: y}
			}
		}
	}
	return Point{X: len(g.cols), Y: 0}
}

// slideRight moves p right along its row until it reaches a free cell.
func (g *grid) slideRight(p Point) Point {
	for g.occupied(p) {
		p.X++
	}
	return p
}
