// Package catalog describes placed-object types and the flags the collision
// builder keys its rules on.
package catalog

import (
	"fmt"
	"sort"
)

// DefaultDim is the footprint used when a dimension is missing.
const DefaultDim = 1

// Tristate is an optional boolean. Rules distinguish "false" from "unset".
type Tristate uint8

// Tristate values.
const (
	Unset Tristate = iota
	False
	True
)

// TristateOf converts a bool to True or False.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// IsTrue reports whether the value is explicitly true.
func (t Tristate) IsTrue() bool { return t == True }

// IsFalse reports whether the value is explicitly false.
func (t Tristate) IsFalse() bool { return t == False }

// String returns "unset", "false" or "true".
func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unset"
	}
}

// Flags is the closed set of object flags with collision semantics.
type Flags struct {
	// Occludes marks roofs and other overhead geometry.
	Occludes Tristate
	// DeckPrimary and DeckSecondary mark walkable bridge decks.
	DeckPrimary   Tristate
	DeckSecondary Tristate
	// OverheadThreshold >= 1 marks an overhead object. Nil when absent.
	OverheadThreshold *int
	Transparent       Tristate
}

// IsOverhead reports whether the object covers its origin tile from above.
func (f Flags) IsOverhead() bool {
	return f.Occludes.IsTrue() || (f.OverheadThreshold != nil && *f.OverheadThreshold >= 1)
}

// Value is an unclassified flag value: a bool, an int64, a float64, a string,
// or a []Value for keys that repeat.
type Value any

// Definition is the static description of an object type.
type Definition struct {
	ID   int
	Name string
	// DimX and DimY are the raw source dimensions; see Footprint.
	DimX, DimY int
	Actions    []string
	HasModels  bool
	Flags      Flags
	// Extra holds every flag without collision semantics, keyed by source name.
	Extra map[string]Value
}

// NewDefinition returns a 1x1 definition with no flags.
func NewDefinition(id int) Definition {
	return Definition{ID: id, DimX: DefaultDim, DimY: DefaultDim}
}

// ZeroFootprint reports whether the object is a thin wall with no area.
func (d Definition) ZeroFootprint() bool {
	return d.DimX == 0 && d.DimY == 0
}

// Footprint returns the occupied width and length, clamping non-positive
// dimensions to DefaultDim.
func (d Definition) Footprint() (w, l int) {
	w, l = d.DimX, d.DimY
	if w <= 0 {
		w = DefaultDim
	}
	if l <= 0 {
		l = DefaultDim
	}
	return w, l
}

// ExtraKeys returns the unclassified flag names, sorted.
func (d Definition) ExtraKeys() []string {
	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns "name#id".
func (d Definition) String() string {
	return fmt.Sprintf("%s#%d", d.Name, d.ID)
}
