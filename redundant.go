/*
 *  redundant.go
 *  padena
 *
 *  Created by Haibao Tang on 03/06/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"sort"
	"strings"
)

// RedundantPathsPurger collapses bubbles, alternative branches that leave a
// common source node and join again at a common sink
type RedundantPathsPurger struct {
	Threshold int // maximum number of interior nodes on a branch
	Workers   int
}

// Bubble is a set of branches sharing source and sink
type Bubble struct {
	Source   int
	Branches []BubbleBranch
}

// BubbleBranch is one simple path between the source and the sink of a bubble
type BubbleBranch struct {
	Slot     int          // extension slot taken on the source
	Interior DeBruijnPath // nodes strictly between source and sink
	Sink     int
	SinkSame bool // sink is read in the same orientation as the source
	Count    int  // summed kmer count over the interior
	Sequence string
}

// Purge removes bubbles until a pass finds none, returns the number of nodes
// removed
func (r *RedundantPathsPurger) Purge(g *DeBruijnGraph) int {
	if r.Threshold <= 0 {
		return 0
	}
	before := g.NodeCount()
	nodes, edges := 0, 0
	for {
		bubbles := r.DetectErroneousNodes(g)
		if len(bubbles) == 0 {
			break
		}
		n, e := r.RemoveErroneousNodes(g, bubbles)
		if n+e == 0 {
			break
		}
		nodes += n
		edges += e
	}
	log.Noticef("Redundant paths (threshold=%d) removed %s nodes and %d edges",
		r.Threshold, Percentage(nodes, before), edges)
	return nodes
}

// DetectErroneousNodes finds bubbles in parallel. The graph is not modified.
func (r *RedundantPathsPurger) DetectErroneousNodes(g *DeBruijnGraph) []Bubble {
	n := g.Size()
	found := make([][]Bubble, (n+ChunkSize-1)/ChunkSize)
	_ = parallelFor(n, r.Workers, func(lo, hi int) error {
		var bubbles []Bubble
		for id := lo; id < hi; id++ {
			if !g.Contains(id) {
				continue
			}
			for _, right := range []bool{false, true} {
				if len(g.Extensions(id, right)) < 2 {
					continue
				}
				bubbles = append(bubbles, r.findBubbles(g, id, right)...)
			}
		}
		found[lo/ChunkSize] = bubbles
		return nil
	})
	var bubbles []Bubble
	for _, chunk := range found {
		bubbles = append(bubbles, chunk...)
	}
	return bubbles
}

// findBubbles follows every extension on one side of the source and groups
// the branches by the node where they end
func (r *RedundantPathsPurger) findBubbles(g *DeBruijnGraph, source int, right bool) []Bubble {
	type sinkKey struct {
		node int
		same bool
	}
	groups := map[sinkKey][]BubbleBranch{}
	var keys []sinkKey
	node := g.Node(source)
	lo := 0
	if right {
		lo = 4
	}
	for slot := lo; slot < lo+4; slot++ {
		bit := uint8(1) << uint(slot)
		if node.ext&bit == 0 {
			continue
		}
		branch, ok := r.followBranch(g, source, right, int(node.nbr[slot]), node.same&bit != 0)
		if !ok {
			continue
		}
		branch.Slot = slot
		key := sinkKey{branch.Sink, branch.SinkSame}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], branch)
	}

	var bubbles []Bubble
	for _, key := range keys {
		if len(groups[key]) > 1 {
			bubbles = append(bubbles, Bubble{Source: source, Branches: groups[key]})
		}
	}
	return bubbles
}

// followBranch walks a chain of nodes with one extension on each side. The
// branch ends at the first node with more than one incoming extension. Dead
// ends, forks, cycles and long chains are not bubble branches.
func (r *RedundantPathsPurger) followBranch(g *DeBruijnGraph, source int, right bool, id int, same bool) (BubbleBranch, bool) {
	var branch BubbleBranch
	var seq strings.Builder
	for {
		if id == source {
			return branch, false
		}
		forward := right == same
		back := g.Extensions(id, !forward)
		if len(back) > 1 {
			branch.Sink = id
			branch.SinkSame = same
			branch.Sequence = seq.String()
			return branch, true
		}
		next := g.Extensions(id, forward)
		if len(next) != 1 || len(branch.Interior) >= r.Threshold {
			return branch, false
		}
		for _, x := range branch.Interior {
			if x == id {
				return branch, false
			}
		}
		branch.Interior = append(branch.Interior, id)
		branch.Count += g.Node(id).Count
		seq.WriteString(orientedKmer(g, id, same))
		same = same == next[0].SameOrientation
		id = next[0].Node
	}
}

// orientedKmer returns the kmer of a node as read in the given orientation
func orientedKmer(g *DeBruijnGraph, id int, same bool) string {
	if same {
		return g.Sequence(id)
	}
	return g.Node(id).Kmer.ReverseComplement(g.K).String(g.K)
}

// RemoveErroneousNodes keeps the best branch of each bubble and removes the
// others. Bubbles are resolved in source order, a branch that touches a node
// already marked in this pass is abandoned. Returns the number of nodes and
// the number of edges removed, edges only go away on their own when a branch
// has no interior node.
func (r *RedundantPathsPurger) RemoveErroneousNodes(g *DeBruijnGraph, bubbles []Bubble) (int, int) {
	sort.SliceStable(bubbles, func(i, j int) bool {
		return bubbles[i].Source < bubbles[j].Source
	})
	type edge struct{ node, slot int }
	var edges []edge
	var doomed []int

	for _, bubble := range bubbles {
		if g.Node(bubble.Source).marked {
			continue
		}
		var branches []BubbleBranch
		for _, branch := range bubble.Branches {
			if g.Node(branch.Sink).marked || hasMarked(g, branch.Interior) {
				continue
			}
			branches = append(branches, branch)
		}
		if len(branches) < 2 {
			continue
		}
		best := 0
		for i := 1; i < len(branches); i++ {
			if betterBranch(branches[i], branches[best]) {
				best = i
			}
		}
		for i, branch := range branches {
			if i == best {
				continue
			}
			if len(branch.Interior) == 0 {
				edges = append(edges, edge{bubble.Source, branch.Slot})
				continue
			}
			for _, id := range branch.Interior {
				g.Node(id).marked = true
				doomed = append(doomed, id)
			}
		}
	}

	removedEdges := 0
	for _, e := range edges {
		if g.Node(e.node).ext&(1<<uint(e.slot)) != 0 {
			g.removeEdge(e.node, e.slot)
			removedEdges++
		}
	}
	removedNodes := g.RemoveNodes(doomed)
	g.clearMarks()
	return removedNodes, removedEdges
}

// betterBranch prefers higher coverage, then the lexicographically smaller
// sequence
func betterBranch(a, b BubbleBranch) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Sequence < b.Sequence
}

// hasMarked checks if any node on the path is marked
func hasMarked(g *DeBruijnGraph, path DeBruijnPath) bool {
	for _, id := range path {
		if g.Node(id).marked {
			return true
		}
	}
	return false
}
