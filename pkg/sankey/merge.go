package sankey

import "slices"

// MergeChains collapses vertical runs of same-label groups. Levels are
// visited top-down and every group is either emitted or absorbed into an
// already emitted ancestor with the same label:
//
//   - one parent label, equal to its own: absorbed into the nearest emitted
//     ancestor with that label, or emitted if there is none
//   - one parent label, different from its own: emitted
//   - several parent labels including its own: absorbed only if the nearest
//     same-label ancestor lies strictly deeper than the nearest ancestor of
//     every other parent label, otherwise emitted
//
// The top level is emitted unchanged.
func MergeChains(levels Levels) Levels {
	emitted := make(Levels, len(levels))
	top := true
	for _, lvl := range levels.Sorted() {
		for _, l := range levels.Labels(lvl) {
			g := levels[lvl][l]
			if !top {
				if target := chainTarget(emitted, g); target != nil {
					target.absorb(g)
					continue
				}
			}
			emitted.add(g)
		}
		top = false
	}
	return emitted
}

// chainTarget returns the emitted ancestor g should be absorbed into, or nil
// if g stays distinct.
func chainTarget(emitted Levels, g *Group) *Group {
	if !slices.Contains(g.ParentLabels, g.Label) {
		return nil
	}
	self, ok := emitted.nearest(g.Label, g.Level-1)
	if !ok {
		return nil
	}
	for _, p := range g.ParentLabels {
		if p == g.Label {
			continue
		}
		if lvl, ok := emitted.nearest(p, g.Level-1); ok && lvl >= self {
			return nil
		}
	}
	return emitted[self][g.Label]
}
