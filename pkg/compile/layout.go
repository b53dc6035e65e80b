package compile

// =============================================================================
// Layout Constants - Single Source of Truth
// =============================================================================

// Layout constants for the compiled graph, in pixels.
//
// The two row increments are intentionally distinct named constants rather
// than a derived formula: the wide step follows stages that can render
// multiple sibling nodes (entities, product matches) and leaves visual room
// for those rows. A future unification should change both call sites
// together.
const (
	// CenterX is the horizontal axis siblings are centered around.
	CenterX = 400

	// StageStep is the row advance for single-node stage transitions.
	StageStep = 100

	// WideStageStep is the row advance after stages that may render
	// multiple sibling nodes.
	WideStageStep = 120

	// EntitySpacing is the horizontal gap between sibling entity nodes.
	EntitySpacing = 200

	// ProductSpacing is the horizontal gap between sibling product nodes.
	ProductSpacing = 300
)

// =============================================================================
// Layout Engine
// =============================================================================

// AdvanceRow returns the next row cursor after a stage of the given height.
// The cursor is monotonically increasing; callers thread it through the
// stage sequence.
func AdvanceRow(current, step int) int {
	return current + step
}

// CenterRow computes n x-coordinates spaced by spacing and horizontally
// centered around centerX. For n = 0 it returns nil. The result is
// symmetric regardless of count: one node sits exactly on the axis, two
// nodes straddle it, and so on.
func CenterRow(n, spacing, centerX int) []int {
	if n <= 0 {
		return nil
	}
	xs := make([]int, n)
	start := centerX - (n-1)*spacing/2
	for i := range xs {
		xs[i] = start + i*spacing
	}
	return xs
}
