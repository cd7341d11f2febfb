package layout

// ApplyOffset packs groups left to right. Each group's x is shifted by a
// cursor that starts at 0 and moves to one past the largest shifted x after
// every group; y is unchanged. The input is not modified.
func ApplyOffset(groups []GroupLayout) []GroupLayout {
	out := make([]GroupLayout, len(groups))
	cursor := 0
	for i, g := range groups {
		shifted := make([]Placement, len(g.Nodes))
		next := cursor
		for j, p := range g.Nodes {
			p.X += cursor
			shifted[j] = p
			next = max(next, p.X+1)
		}
		out[i] = GroupLayout{Key: g.Key, Nodes: shifted}
		cursor = next
	}
	return out
}
