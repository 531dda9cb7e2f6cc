package engine

// Render draws g with every position on path marked X and, when extra is
// non-nil, the added obstruction marked O. The start marker is kept so the
// rendering still parses.
func Render(g *Grid, path *Path, extra *Position) []string {
	rows := make([][]byte, g.height)
	for y, line := range g.Lines() {
		rows[y] = []byte(line)
	}

	if path != nil {
		for _, p := range path.DistinctPositions() {
			if p != g.start.Pos {
				rows[p.Y][p.X] = VisitedChar
			}
		}
	}
	if extra != nil && g.InBounds(*extra) {
		rows[extra.Y][extra.X] = AddedChar
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = string(row)
	}
	return lines
}
