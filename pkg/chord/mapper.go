package chord

// Mapper maps an identifier (taxon name, EC number) to its category.
// It reports false for identifiers it does not know.
type Mapper func(id string) (string, bool)

// Identity maps every identifier to itself.
func Identity(id string) (string, bool) { return id, true }

// FromMap returns a Mapper backed by m. Empty categories count as unmapped.
func FromMap(m map[string]string) Mapper {
	return func(id string) (string, bool) {
		c, ok := m[id]
		return c, ok && c != ""
	}
}
