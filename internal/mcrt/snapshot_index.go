package mcrt

import "sort"

// kdNode is a node of a static k-d tree over Snapshot site positions.
// Because the Voronoi cell containing a point is, by definition, the cell
// of its nearest site, a k-d nearest-neighbor search answers the
// position-to-cell query directly; no tessellation is computed or
// stored.
type kdNode struct {
	axis        int
	splitValue  Real
	index       int // site index at this node
	left, right *kdNode
}

// buildKDTree builds a balanced k-d tree over the given positions. The
// returned tree holds indices into positions, not copies.
func buildKDTree(positions []Point3) *kdNode {
	idx := make([]int, len(positions))
	for i := range idx {
		idx[i] = i
	}
	return buildKDNode(positions, idx, 0)
}

func buildKDNode(positions []Point3, idx []int, depth int) *kdNode {
	if len(idx) == 0 {
		return nil
	}
	axis := depth % 3
	sort.Slice(idx, func(a, b int) bool {
		return coordAxis(positions[idx[a]], axis) < coordAxis(positions[idx[b]], axis)
	})
	mid := len(idx) / 2
	node := &kdNode{
		axis:       axis,
		splitValue: coordAxis(positions[idx[mid]], axis),
		index:      idx[mid],
	}
	node.left = buildKDNode(positions, idx[:mid], depth+1)
	if mid+1 < len(idx) {
		node.right = buildKDNode(positions, idx[mid+1:], depth+1)
	}
	return node
}

func coordAxis(p Point3, axis int) Real {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// nearest returns the index of the site nearest to q, or (-1, false) for an
// empty tree.
func (n *kdNode) nearest(positions []Point3, q Point3) (int, bool) {
	if n == nil {
		return -1, false
	}
	best := n.index
	bestDist := q.Sub(positions[n.index]).Dot(q.Sub(positions[n.index]))

	var near, far *kdNode
	diff := coordAxis(q, n.axis) - n.splitValue
	if diff < 0 {
		near, far = n.left, n.right
	} else {
		near, far = n.right, n.left
	}

	if i, ok := near.nearest(positions, q); ok {
		d := q.Sub(positions[i]).Dot(q.Sub(positions[i]))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	// Only descend into the far subtree if the splitting plane is closer
	// than the current best candidate.
	if far != nil && diff*diff < bestDist {
		if i, ok := far.nearest(positions, q); ok {
			d := q.Sub(positions[i]).Dot(q.Sub(positions[i]))
			if d < bestDist {
				best, bestDist = i, d
			}
		}
	}
	return best, true
}
