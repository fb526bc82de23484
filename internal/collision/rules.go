package collision

import (
	"fmt"
	"slices"

	"github.com/Faultbox/tilenav/internal/catalog"
	"github.com/Faultbox/tilenav/internal/grid"
)

// Rule names, in evaluation order.
const (
	RulePassable      = "passable"
	RuleDeckPrimary   = "bridge-deck-primary"
	RuleRoof          = "roof"
	RuleDeckSecondary = "bridge-deck-secondary"
	RuleThinWall      = "thin-wall"
	RuleFootprintWall = "footprint-wall"
)

// DefaultPassableIDs lists object types that are always walkable.
var DefaultPassableIDs = []int{45156}

// Rule is one entry of the placement cascade. Match must not mutate
// anything; Apply only writes to the stamp's flag map.
type Rule struct {
	Name  string
	Match func(def catalog.Definition, p catalog.Placement) bool
	Apply func(s *Stamp)
}

// Rules returns the placement cascade. The first matching rule wins.
func Rules(passableIDs []int) []Rule {
	passable := slices.Clone(passableIDs)

	return []Rule{
		{
			Name: RulePassable,
			Match: func(def catalog.Definition, _ catalog.Placement) bool {
				return slices.Contains(passable, def.ID)
			},
			Apply: func(s *Stamp) {
				s.ForceWalkable(fmt.Sprintf("Override: Object %d forced walkable", s.Def.ID))
			},
		},
		{
			Name: RuleDeckPrimary,
			Match: func(def catalog.Definition, _ catalog.Placement) bool {
				return def.Flags.DeckPrimary.IsTrue() && def.Flags.Occludes.IsFalse()
			},
			Apply: func(s *Stamp) {
				s.ForceWalkable(fmt.Sprintf("BridgeOverride: Object %d deck=true occludes=false", s.Def.ID))
			},
		},
		{
			Name: RuleRoof,
			Match: func(def catalog.Definition, _ catalog.Placement) bool {
				return def.Flags.IsOverhead()
			},
			Apply: func(s *Stamp) {
				s.Flags.At(s.Origin).AddReason(fmt.Sprintf("Roof: Object:%d", s.Def.ID))
			},
		},
		{
			Name: RuleDeckSecondary,
			Match: func(def catalog.Definition, _ catalog.Placement) bool {
				return def.Flags.DeckSecondary.IsTrue() && def.Flags.Occludes.IsFalse()
			},
			Apply: func(s *Stamp) {
				s.ForceWalkable(fmt.Sprintf("BridgeDeck: %d", s.Def.ID))
			},
		},
		{
			Name: RuleThinWall,
			Match: func(def catalog.Definition, _ catalog.Placement) bool {
				return def.ZeroFootprint()
			},
			Apply: func(s *Stamp) {
				reason := fmt.Sprintf("Object:%d rotation:%d dim0", s.Def.ID, s.Placement.Rotation)
				s.Wall(s.Origin, reason)
			},
		},
		{
			Name: RuleFootprintWall,
			Match: func(catalog.Definition, catalog.Placement) bool {
				return true
			},
			Apply: func(s *Stamp) {
				w, l := s.Def.Footprint()
				reason := fmt.Sprintf("Object:%d rotation:%d dim:%dx%d", s.Def.ID, s.Placement.Rotation, w, l)
				s.EachCell(func(c grid.Coordinate) {
					s.Wall(c, reason)
				})
			},
		},
	}
}

// Stamp is the state a rule applies one placement against.
type Stamp struct {
	Def       catalog.Definition
	Placement catalog.Placement
	Origin    grid.Coordinate
	Flags     grid.FlagMap
}

// EachCell visits the placement's clamped footprint, x-major.
func (s *Stamp) EachCell(fn func(c grid.Coordinate)) {
	w, l := s.Def.Footprint()
	for dx := 0; dx < w; dx++ {
		for dy := 0; dy < l; dy++ {
			fn(s.Origin.Step(dx, dy))
		}
	}
}

// ForceWalkable marks the whole footprint walkable with reason.
func (s *Stamp) ForceWalkable(reason string) {
	s.EachCell(func(c grid.Coordinate) {
		f := s.Flags.At(c)
		f.ForceWalkable = true
		f.AddReason(reason)
	})
}

// Wall blocks the rotation edge of c and the facing edge of its neighbour.
func (s *Stamp) Wall(c grid.Coordinate, reason string) {
	d := grid.FromRotation(s.Placement.Rotation)

	f := s.Flags.At(c)
	f.AddReason(reason)
	f.Block(d)

	dx, dy := d.Offset()
	opp := d.Opposite()
	n := s.Flags.At(c.Step(dx, dy))
	n.Block(opp)
	n.AddReason(fmt.Sprintf("Neighbor %s by object %d", opp, s.Def.ID))
}
