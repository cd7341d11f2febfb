package chord

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Snapshot is the stored form of a [Result]. Its indexes keep every entry's
// tag, so a category literally named "gap_2" is still a category after a
// round trip.
type Snapshot struct {
	Inner      Matrix  `json:"inner"`
	InnerIndex []Entry `json:"inner_index"`
	Outer      Matrix  `json:"outer"`
	OuterIndex []Entry `json:"outer_index"`

	Colors        map[string]string `json:"colors"`
	TaxMap        map[string]string `json:"tax_map"`
	AnnotationMap map[string]string `json:"ann_map"`
}

// Snapshot returns the stored form of r.
func (r Result) Snapshot() Snapshot {
	return Snapshot{
		Inner:         r.Inner,
		InnerIndex:    r.InnerIndex,
		Outer:         r.Outer,
		OuterIndex:    r.OuterIndex,
		Colors:        r.Colors,
		TaxMap:        r.TaxMap,
		AnnotationMap: r.AnnotationMap,
	}
}

// Result restores the result s was taken from.
func (s Snapshot) Result() Result {
	return Result{
		Inner:         s.Inner,
		InnerIndex:    Index(s.InnerIndex),
		Outer:         s.Outer,
		OuterIndex:    Index(s.OuterIndex),
		Colors:        s.Colors,
		TaxMap:        s.TaxMap,
		AnnotationMap: s.AnnotationMap,
	}
}

// UnmarshalJSON rejects payloads without an outer index. Every built result
// has at least the three gaps there.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.OuterIndex) == 0 {
		return fmt.Errorf("chord snapshot has no outer index")
	}
	*s = Snapshot(p)
	return nil
}
