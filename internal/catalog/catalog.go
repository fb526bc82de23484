package catalog

import "sort"

// Lookup resolves object definitions by type id.
type Lookup interface {
	Definition(id int) (Definition, bool)
}

// Catalog is an in-memory Lookup. It is read-only once populated.
type Catalog struct {
	defs map[int]Definition
}

// New creates a catalog from definitions. Later definitions replace earlier
// ones with the same id.
func New(defs ...Definition) *Catalog {
	c := &Catalog{defs: make(map[int]Definition, len(defs))}
	for _, d := range defs {
		c.defs[d.ID] = d
	}
	return c
}

// Add inserts or replaces a definition.
func (c *Catalog) Add(d Definition) {
	c.defs[d.ID] = d
}

// Definition returns the definition for id.
func (c *Catalog) Definition(id int) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	d, ok := c.defs[id]
	return d, ok
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.defs)
}

// IDs returns every known id, ascending.
func (c *Catalog) IDs() []int {
	ids := make([]int, 0, c.Len())
	if c != nil {
		for id := range c.defs {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// FlagNames returns every unclassified flag name used by any definition.
func (c *Catalog) FlagNames() []string {
	seen := make(map[string]struct{})
	for _, id := range c.IDs() {
		for _, k := range c.defs[id].ExtraKeys() {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
