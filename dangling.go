/*
 *  dangling.go
 *  padena
 *
 *  Created by Haibao Tang on 03/04/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

// DeBruijnPath is an ordered walk of node ids
type DeBruijnPath []int

// DanglingLinksPurger removes short dead-end paths from the graph
type DanglingLinksPurger struct {
	Threshold int // maximum number of nodes in a dangling link
	Workers   int
}

// Purge removes all dangling links. Thresholds 1 to T-1 run once each, so
// the shortest links go first, then T runs until nothing changes. Returns
// the number of nodes removed.
func (r *DanglingLinksPurger) Purge(g *DeBruijnGraph) int {
	if r.Threshold <= 0 {
		return 0
	}
	before := g.NodeCount()
	total := 0
	for t := 1; t < r.Threshold; t++ {
		total += r.RemoveErroneousNodes(g, r.DetectErroneousNodes(g, t))
	}
	for {
		removed := r.RemoveErroneousNodes(g, r.DetectErroneousNodes(g, r.Threshold))
		total += removed
		if removed == 0 {
			break
		}
	}
	log.Noticef("Dangling links (threshold=%d) removed %s nodes",
		r.Threshold, Percentage(total, before))
	return total
}

// DetectErroneousNodes scans all nodes in parallel and collects the dangling
// links of at most threshold nodes. The graph is not modified.
func (r *DanglingLinksPurger) DetectErroneousNodes(g *DeBruijnGraph, threshold int) []DeBruijnPath {
	if threshold <= 0 {
		return nil
	}
	n := g.Size()
	found := make([][]DeBruijnPath, (n+ChunkSize-1)/ChunkSize)
	_ = parallelFor(n, r.Workers, func(lo, hi int) error {
		var links []DeBruijnPath
		for id := lo; id < hi; id++ {
			if !g.Contains(id) {
				continue
			}
			var link DeBruijnPath
			switch {
			case g.ExtensionsCount(id) == 0:
				link = DeBruijnPath{id}
			case g.RightCount(id) == 0:
				link = traceDanglingLink(g, id, false, threshold)
			case g.LeftCount(id) == 0:
				link = traceDanglingLink(g, id, true, threshold)
			}
			if link != nil {
				links = append(links, link)
			}
		}
		found[lo/ChunkSize] = links
		return nil
	})
	var links []DeBruijnPath
	for _, chunk := range found {
		links = append(links, chunk...)
	}
	return links
}

// RemoveErroneousNodes deletes all nodes on the links, returns the number of
// nodes removed
func (r *DanglingLinksPurger) RemoveErroneousNodes(g *DeBruijnGraph, links []DeBruijnPath) int {
	removed := 0
	for _, link := range links {
		removed += g.RemoveNodes(link)
	}
	return removed
}

// traceDanglingLink walks away from a dead end until it hits an ambiguity,
// the other end of the path, or the threshold. A nil result means the path
// is too long to be dangling.
func traceDanglingLink(g *DeBruijnGraph, start int, isForward bool, threshold int) DeBruijnPath {
	var link DeBruijnPath
	id := start
	sameOrientation := true
	for {
		right := isForward == sameOrientation
		sameDir := g.Extensions(id, right)
		oppDir := g.Extensions(id, !right)
		if len(sameDir) == 0 {
			// Other end of an isolated path
			link, _ = addDanglingNode(link, id, threshold)
			return link
		}
		if len(oppDir) > 1 {
			// Joins the rest of the graph here
			return link
		}
		if len(sameDir) > 1 {
			link, _ = addDanglingNode(link, id, threshold)
			return link
		}
		var done bool
		if link, done = addDanglingNode(link, id, threshold); done {
			return link
		}
		next := sameDir[0]
		sameOrientation = sameOrientation == next.SameOrientation
		id = next.Node
	}
}

// addDanglingNode appends the node to the link. It stops the walk on a loop
// and drops the link when it reaches the threshold.
func addDanglingNode(link DeBruijnPath, id, threshold int) (DeBruijnPath, bool) {
	for _, x := range link {
		if x == id {
			return link, true
		}
	}
	if len(link) >= threshold {
		return nil, true
	}
	return append(link, id), false
}
