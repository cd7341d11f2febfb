package cli

import "testing"

func TestCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 taxa"},
		{1, "1 taxon"},
		{12, "12 taxa"},
	}
	for _, tt := range tests {
		if got := count(tt.n, "taxon", "taxa"); got != tt.want {
			t.Errorf("count(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
