/*
 *  contig.go
 *  padena
 *
 *  Created by Haibao Tang on 03/08/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
	"math/bits"
	"sort"
)

// Contig is a sequence assembled from a maximal unambiguous path
type Contig struct {
	Name     string
	Sequence string
	Nodes    []int   // graph nodes consumed by the contig, empty for loaded contigs
	Coverage float64 // average kmer count
}

// Len returns the length of the contig sequence
func (r Contig) Len() int {
	return len(r.Sequence)
}

// ContigBuilder walks the simple paths of a purged graph into contigs
type ContigBuilder struct {
	CoverageThreshold float64 // contigs with lower average kmer count are dropped
	Workers           int
}

// contigWalk is a path with the orientation of every node
type contigWalk struct {
	nodes []int
	same  []bool
}

// Build emits one contig per maximal simple path. Every live node ends up in
// exactly one contig; nodes on cycles are emitted as cycle segments.
func (r *ContigBuilder) Build(g *DeBruijnGraph) []Contig {
	valid := validExtensions(g)
	n := g.Size()

	// Trace from the path ends in parallel, read-only
	found := make([][]contigWalk, (n+ChunkSize-1)/ChunkSize)
	_ = parallelFor(n, r.Workers, func(lo, hi int) error {
		var walks []contigWalk
		for id := lo; id < hi; id++ {
			if !g.Contains(id) {
				continue
			}
			left := bits.OnesCount8(valid[id] & leftMask)
			right := bits.OnesCount8(valid[id] & rightMask)
			var walk contigWalk
			switch {
			case left == 0 && right == 0:
				walk = contigWalk{[]int{id}, []bool{true}}
			case left == 0:
				walk = traceSimplePath(g, valid, id, true)
			case right == 0:
				walk = traceSimplePath(g, valid, id, false)
			default:
				continue
			}
			// Each path is seen from both ends, keep one
			if walk.nodes[0] <= walk.nodes[len(walk.nodes)-1] {
				walks = append(walks, walk)
			}
		}
		found[lo/ChunkSize] = walks
		return nil
	})
	var walks []contigWalk
	for _, chunk := range found {
		walks = append(walks, chunk...)
	}
	for _, walk := range walks {
		markVisited(g, walk.nodes)
	}

	// Whatever is left sits on a cycle
	cycles := 0
	for _, id := range g.Nodes() {
		if g.Node(id).marked {
			continue
		}
		walk := traceSimplePath(g, valid, id, true)
		markVisited(g, walk.nodes)
		walks = append(walks, walk)
		cycles++
	}
	g.clearMarks()

	sort.Slice(walks, func(i, j int) bool {
		return walks[i].nodes[0] < walks[j].nodes[0]
	})
	var contigs []Contig
	for _, walk := range walks {
		contig := walkToContig(g, walk)
		if r.CoverageThreshold > 0 && contig.Coverage < r.CoverageThreshold {
			continue
		}
		contig.Name = fmt.Sprintf("contig_%d", len(contigs)+1)
		contigs = append(contigs, contig)
	}
	log.Noticef("Built %d contigs from %d nodes (%d cycles, %d below coverage %.1f)",
		len(contigs), g.NodeCount(), cycles, len(walks)-len(contigs), r.CoverageThreshold)
	return contigs
}

// validExtensions masks out every extension that makes a path ambiguous:
// sides with more than one extension, palindromes and self loops. The mask
// is kept symmetric, the graph is not changed.
func validExtensions(g *DeBruijnGraph) []uint8 {
	valid := make([]uint8, g.Size())
	for id := range valid {
		if g.Contains(id) {
			valid[id] = g.Node(id).ext
		}
	}
	invalidate := func(id, slot int) {
		node := g.Node(id)
		bit := uint8(1) << uint(slot)
		if valid[id]&bit == 0 {
			return
		}
		valid[id] &^= bit
		back := backSlot(node.Kmer, g.K, slot, node.same&bit != 0)
		valid[node.nbr[slot]] &^= 1 << uint(back)
	}
	for _, id := range g.Nodes() {
		node := g.Node(id)
		palindrome := g.IsPalindrome(id)
		for slot := 0; slot < numSlots; slot++ {
			if node.ext&(1<<uint(slot)) == 0 {
				continue
			}
			side := leftMask
			if slot >= 4 {
				side = rightMask
			}
			if palindrome || int(node.nbr[slot]) == id || bits.OnesCount8(node.ext&side) > 1 {
				invalidate(id, slot)
			}
		}
	}
	return valid
}

// traceSimplePath follows valid extensions from a node until the path ends
// or comes back to the start
func traceSimplePath(g *DeBruijnGraph, valid []uint8, start int, same bool) contigWalk {
	walk := contigWalk{[]int{start}, []bool{same}}
	id := start
	for {
		node := g.Node(id)
		lo := 0
		if same {
			lo = 4
		}
		slot := -1
		for s := lo; s < lo+4; s++ {
			if valid[id]&(1<<uint(s)) != 0 {
				slot = s
				break
			}
		}
		if slot < 0 {
			return walk
		}
		next := int(node.nbr[slot])
		if next == start {
			return walk
		}
		same = same == (node.same&(1<<uint(slot)) != 0)
		id = next
		walk.nodes = append(walk.nodes, id)
		walk.same = append(walk.same, same)
	}
}

// markVisited flags the nodes of a contig, a node can only be consumed once
func markVisited(g *DeBruijnGraph, ids []int) {
	for _, id := range ids {
		node := g.Node(id)
		if node.marked {
			panic(fmt.Sprintf("%s: node %s consumed by two contigs",
				ErrInconsistentGraph, node.Kmer.String(g.K)))
		}
		node.marked = true
	}
}

// walkToContig spells the sequence of a walk, consecutive kmers share K-1
// bases
func walkToContig(g *DeBruijnGraph, walk contigWalk) Contig {
	k := g.K
	seq := []byte(orientedKmer(g, walk.nodes[0], walk.same[0]))
	total := 0
	for i, id := range walk.nodes {
		total += g.Node(id).Count
		if i == 0 {
			continue
		}
		x := g.Node(id).Kmer
		if walk.same[i] {
			seq = append(seq, codeBase[x.last()])
		} else {
			seq = append(seq, codeBase[3-x.first(k)])
		}
	}
	return Contig{
		Sequence: string(seq),
		Nodes:    walk.nodes,
		Coverage: float64(total) / float64(len(walk.nodes)),
	}
}
