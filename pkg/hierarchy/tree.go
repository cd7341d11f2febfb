package hierarchy

import (
	"github.com/goccy/go-json"

	"github.com/matzehuels/metavis/pkg/abundance"
)

// DefaultLevels are the ranks of the sunburst, broadest first.
var DefaultLevels = []string{"phylum", "genus", "species"}

// Record is one leaf identifier with its category at each hierarchy level.
// A missing or empty level means the identifier is unclassified there.
type Record struct {
	ID     string            `json:"id"`
	Levels map[string]string `json:"levels"`
}

// At returns the record's category at level.
func (r Record) At(level string) (string, bool) {
	v, ok := r.Levels[level]
	return v, ok && v != ""
}

// GroupKey identifies a group produced by [GroupAtLevel].
//
// Unclassified groups are keyed by the record that forms them, so two
// unclassified records never share a group and can never collide with a real
// category called "Unclassified ...".
type GroupKey struct {
	Name         string
	Unclassified bool
	ID           string
}

// Label returns the display name of the group.
func (k GroupKey) Label() string {
	if k.Unclassified {
		return "Unclassified " + k.ID
	}
	return k.Name
}

// Group is a subset of records sharing a key.
type Group struct {
	Key     GroupKey
	Records []Record
}

// GroupAtLevel partitions records by their category at level, in first-seen
// order. Records without a category at level each form their own group.
func GroupAtLevel(records []Record, level string) []Group {
	pos := make(map[GroupKey]int)
	var groups []Group
	for _, r := range records {
		key := GroupKey{Unclassified: true, ID: r.ID}
		if name, ok := r.At(level); ok {
			key = GroupKey{Name: name}
		}
		i, ok := pos[key]
		if !ok {
			i = len(groups)
			pos[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// Node is one arc of the sunburst.
//
// Leaves carry Value and their share of the grand total; internal nodes carry
// Children and the sum of their children's shares.
type Node struct {
	ID           string
	Label        string
	Value        *float64
	Percentage   float64
	Unclassified bool
	Children     []*Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

type nodeJSON struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Value        *float64 `json:"value,omitempty"`
	Percentage   *float64 `json:"percentage"`
	Unclassified bool     `json:"unclassified,omitempty"`
	Children     []*Node  `json:"children,omitempty"`
}

// MarshalJSON encodes NaN shares and values as null.
func (n *Node) MarshalJSON() ([]byte, error) {
	o := nodeJSON{
		ID:           n.ID,
		Label:        n.Label,
		Percentage:   nullable(n.Percentage),
		Unclassified: n.Unclassified,
		Children:     n.Children,
	}
	if n.Value != nil {
		o.Value = nullable(*n.Value)
	}
	return json.Marshal(o)
}

// UnmarshalJSON reads a null percentage as NaN.
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = Node{
		ID:           in.ID,
		Label:        in.Label,
		Value:        in.Value,
		Percentage:   orNaN(in.Percentage),
		Unclassified: in.Unclassified,
		Children:     in.Children,
	}
	return nil
}

// Fold builds the subtree named name over records, consuming levels in order.
//
// A leaf is emitted when no levels remain, or when a single record is left
// with no category at levels[0]; the latter is marked unclassified and
// labelled "U_<id>". Several records left with no levels (two strains
// resolving to one species, say) collapse into one leaf named name carrying
// the NaN-skipping sum of their values, so no share is lost. Otherwise records are grouped by levels[0] and each group
// is folded with levels[1:]. Leaf shares are value/total; internal shares are the
// NaN-skipping sum of their children's. Every call either emits a leaf or
// consumes a level, so folding always terminates.
func Fold(values map[string]float64, records []Record, levels []string, name string, total float64) *Node {
	if len(records) == 0 {
		return &Node{ID: name, Label: name}
	}

	if len(levels) == 0 {
		if len(records) > 1 {
			return collapsed(values, records, name, total)
		}
		return leaf(values, records[0], false, total)
	}
	if len(records) == 1 {
		if _, ok := records[0].At(levels[0]); !ok {
			return leaf(values, records[0], true, total)
		}
	}

	groups := GroupAtLevel(records, levels[0])
	n := &Node{ID: name, Label: name, Children: make([]*Node, 0, len(groups))}
	shares := make([]float64, 0, len(groups))
	for _, g := range groups {
		child := Fold(values, g.Records, levels[1:], g.Key.Label(), total)
		if g.Key.Unclassified {
			child.ID = g.Key.ID
			child.Unclassified = true
		}
		n.Children = append(n.Children, child)
		shares = append(shares, child.Percentage)
	}
	n.Percentage = nanSum(shares...)
	return n
}

func leaf(values map[string]float64, r Record, unclassified bool, total float64) *Node {
	n := &Node{ID: r.ID, Label: r.ID, Unclassified: unclassified}
	if unclassified {
		n.Label = "U_" + r.ID
	}
	v, ok := values[r.ID]
	if !ok {
		v = nan()
	} else {
		n.Value = &v
	}
	n.Percentage = v / total
	return n
}

// collapsed is the leaf for records that share every level.
func collapsed(values map[string]float64, records []Record, name string, total float64) *Node {
	n := &Node{ID: name, Label: name}
	var vs []float64
	for _, r := range records {
		if v, ok := values[r.ID]; ok {
			vs = append(vs, v)
		}
	}
	if len(vs) == 0 {
		n.Percentage = nan()
		return n
	}
	v := nanSum(vs...)
	n.Value = &v
	n.Percentage = v / total
	return n
}

// BuildTree folds the per-identifier mean abundance of t into a tree rooted at
// "root" following levels.
func BuildTree(t abundance.Table, records []Record, levels []string) *Node {
	self := make(map[string]string, len(records))
	for _, r := range records {
		self[r.ID] = r.ID
	}
	counts := MeanCounts(t, self)

	values := make(map[string]float64, len(counts.Index))
	for i, id := range counts.Index {
		values[id] = counts.Values[i]
	}
	total := nanSum(counts.Values...)
	return Fold(values, records, levels, "root", total)
}
