package collision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/tilenav/internal/catalog"
	"github.com/Faultbox/tilenav/internal/grid"
)

func TestRules_Order(t *testing.T) {
	var names []string
	for _, r := range Rules(DefaultPassableIDs) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		RulePassable,
		RuleDeckPrimary,
		RuleRoof,
		RuleDeckSecondary,
		RuleThinWall,
		RuleFootprintWall,
	}, names)
}

func TestRules_CustomPassableIDs(t *testing.T) {
	rules := Rules([]int{7})
	p := catalog.Placement{ObjectID: 7}

	assert.True(t, rules[0].Match(catalog.NewDefinition(7), p))
	assert.False(t, rules[0].Match(catalog.NewDefinition(45156), p))
}

func TestStamp_Wall(t *testing.T) {
	s := &Stamp{
		Def:       catalog.NewDefinition(5),
		Placement: catalog.Placement{Rotation: 3},
		Origin:    grid.At(10, 10, 0),
		Flags:     grid.FlagMap{},
	}
	s.Wall(s.Origin, "test")

	assert.Len(t, s.Flags, 2)
	assert.True(t, s.Flags[grid.At(10, 10, 0)].South)
	below := s.Flags[grid.At(10, 9, 0)]
	assert.True(t, below.North)
	assert.Equal(t, []string{"Neighbor N by object 5"}, below.Reasons)
}

func TestStamp_EachCellClampsFootprint(t *testing.T) {
	d := catalog.NewDefinition(1)
	d.DimX, d.DimY = 0, 3

	var cells []grid.Coordinate
	s := &Stamp{Def: d, Origin: grid.At(0, 0, 0), Flags: grid.FlagMap{}}
	s.EachCell(func(c grid.Coordinate) { cells = append(cells, c) })

	assert.Equal(t, []grid.Coordinate{grid.At(0, 0, 0), grid.At(0, 1, 0), grid.At(0, 2, 0)}, cells)
}
