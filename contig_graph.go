/*
 *  contig_graph.go
 *  padena
 *
 *  Created by Haibao Tang on 03/09/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
	"strings"
)

// ContigEdge links the end of one contig to another contig
type ContigEdge struct {
	To              int
	SameOrientation bool
}

// ContigGraph is the overlap graph between contig ends. Left[i] lists the
// contigs that can precede contig i, Right[i] those that can follow it.
// Contigs never link to themselves, and a palindromic contig is always
// entered with SameOrientation set.
type ContigGraph struct {
	K          int
	Contigs    []Contig
	Left       [][]ContigEdge
	Right      [][]ContigEdge
	palindrome []bool
}

// BuildContigGraph links contigs whose ends overlap by K-1 bases, either
// directly or through the reverse complement
func BuildContigGraph(contigs []Contig, k, workers int) (*ContigGraph, error) {
	if k <= 1 {
		return nil, fmt.Errorf("%w: kmer length %d too small for a contig graph", ErrInvalidInput, k)
	}
	cg := &ContigGraph{
		K:          k,
		Contigs:    make([]Contig, len(contigs)),
		Left:       make([][]ContigEdge, len(contigs)),
		Right:      make([][]ContigEdge, len(contigs)),
		palindrome: make([]bool, len(contigs)),
	}
	leftMap := map[string][]int{}
	rightMap := map[string][]int{}
	for i, contig := range contigs {
		if contig.Len() < k {
			return nil, fmt.Errorf("%w: contig `%s` is shorter than k=%d", ErrInvalidInput, contig.Name, k)
		}
		contig.Sequence = strings.ToUpper(contig.Sequence)
		cg.Contigs[i] = contig
		cg.palindrome[i] = contig.Sequence == string(ReverseComplement([]byte(contig.Sequence)))
		left, right := contigEnds(contig.Sequence, k)
		leftMap[left] = append(leftMap[left], i)
		rightMap[right] = append(rightMap[right], i)
	}

	_ = parallelFor(len(contigs), workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			left, right := contigEnds(cg.Contigs[i].Sequence, k)
			for _, j := range rightMap[left] {
				cg.Left[i] = cg.addEdge(cg.Left[i], i, j, true)
			}
			for _, j := range leftMap[string(ReverseComplement([]byte(left)))] {
				cg.Left[i] = cg.addEdge(cg.Left[i], i, j, false)
			}
			for _, j := range leftMap[right] {
				cg.Right[i] = cg.addEdge(cg.Right[i], i, j, true)
			}
			for _, j := range rightMap[string(ReverseComplement([]byte(right)))] {
				cg.Right[i] = cg.addEdge(cg.Right[i], i, j, false)
			}
		}
		return nil
	})

	edges := 0
	for i := range contigs {
		edges += len(cg.Left[i]) + len(cg.Right[i])
	}
	log.Noticef("Contig graph contains %d contigs and %d extensions", len(contigs), edges)
	return cg, nil
}

// addEdge appends the edge from i to j unless it is a self link or already
// listed. Both strands of a palindromic contig spell the same sequence.
func (r *ContigGraph) addEdge(edges []ContigEdge, i, j int, same bool) []ContigEdge {
	if j == i {
		return edges
	}
	if r.palindrome[j] {
		same = true
	}
	e := ContigEdge{j, same}
	for _, x := range edges {
		if x == e {
			return edges
		}
	}
	return append(edges, e)
}

// contigEnds returns the first and last K-1 bases
func contigEnds(s string, k int) (string, string) {
	return s[:k-1], s[len(s)-k+1:]
}

// ExtensionsCount returns the number of overlaps on both ends of a contig
func (r *ContigGraph) ExtensionsCount(i int) int {
	return len(r.Left[i]) + len(r.Right[i])
}

// Next lists the contigs that can follow a contig read in the given
// orientation, with their resulting orientation
func (r *ContigGraph) Next(step PathStep) []PathStep {
	edges := r.Right[step.Contig]
	if step.Reverse {
		edges = r.Left[step.Contig]
	}
	next := make([]PathStep, 0, len(edges))
	for _, e := range edges {
		reverse := step.Reverse
		if !e.SameOrientation {
			reverse = !reverse
		}
		next = append(next, PathStep{e.To, reverse})
	}
	return next
}

// IsPalindrome checks if the contig equals its own reverse complement
func (r *ContigGraph) IsPalindrome(i int) bool {
	return r.palindrome[i]
}

// Equivalent checks if two steps spell the same sequence, the strand of a
// palindromic contig does not matter
func (r *ContigGraph) Equivalent(a, b PathStep) bool {
	return a.Contig == b.Contig && (a.Reverse == b.Reverse || r.palindrome[a.Contig])
}

// HasEdge checks that b can directly follow a in the overlap graph
func (r *ContigGraph) HasEdge(a, b PathStep) bool {
	for _, next := range r.Next(a) {
		if r.Equivalent(next, b) {
			return true
		}
	}
	return false
}

// Connected checks if a simple path of at most depth overlaps leads from a
// to b. At most MaxTracePaths partial paths are explored.
func (r *ContigGraph) Connected(a, b PathStep, depth int) bool {
	queue := []ScaffoldPath{{a}}
	for explored := 0; len(queue) > 0 && explored < MaxTracePaths; explored++ {
		path := queue[0]
		queue = queue[1:]
		if len(path) > depth {
			continue
		}
		for _, next := range r.Next(path[len(path)-1]) {
			if path.contains(next.Contig) {
				continue
			}
			if r.Equivalent(next, b) {
				return true
			}
			extended := make(ScaffoldPath, len(path), len(path)+1)
			copy(extended, path)
			queue = append(queue, append(extended, next))
		}
	}
	return false
}

// OrientedSequence returns the contig sequence as read in a path step
func (r *ContigGraph) OrientedSequence(step PathStep) string {
	s := r.Contigs[step.Contig].Sequence
	if step.Reverse {
		return string(ReverseComplement([]byte(s)))
	}
	return s
}
