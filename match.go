/*
 * Filename: /Users/bao/code/padena/match.go
 * Path: /Users/bao/code/padena
 * Created Date: Thursday, March 19th 2020, 9:12:40 pm
 * Author: bao
 *
 * Copyright (c) 2020 Haibao Tang
 */

package padena

import (
	"sort"

	hungarianAlgorithm "github.com/oddg/hungarian-algorithm"
)

// contigEnd is one end of a contig, side 0 is the left end and 1 the right
type contigEnd struct {
	contig, side int
}

// linkEnds returns the contig end each side of the link attaches to
func linkEnds(link ContigLink) (contigEnd, contigEnd) {
	out := contigEnd{link.A, 1}
	if link.AReversed {
		out.side = 0
	}
	in := contigEnd{link.B, 0}
	if link.BReversed {
		in.side = 1
	}
	return out, in
}

// MatchContigEnds keeps at most one link per contig end. The ends form a
// weighted graph with the link support as weights. Links picked from both of
// their ends in a maximum weight assignment are kept first, then the other
// links by descending support while both their ends are free.
func MatchContigEnds(links []ContigLink) []ContigLink {
	endIndex := map[contigEnd]int{}
	indexOf := func(e contigEnd) int {
		i, ok := endIndex[e]
		if !ok {
			i = len(endIndex)
			endIndex[e] = i
		}
		return i
	}
	for _, link := range links {
		out, in := linkEnds(link)
		indexOf(out)
		indexOf(in)
	}
	N := len(endIndex)
	if N == 0 {
		return nil
	}
	weights := Make2DSlice(N, N)
	for _, link := range links {
		out, in := linkEnds(link)
		i, j := endIndex[out], endIndex[in]
		weights[i][j] += link.Support
		if i != j {
			weights[j][i] += link.Support
		}
	}
	solution := maxBipartiteMatchingWithWeights(weights)

	used := make([]bool, N)
	picked := make([]bool, len(links))
	for k, link := range links {
		out, in := linkEnds(link)
		i, j := endIndex[out], endIndex[in]
		if solution != nil && i != j && solution[i] == j && solution[j] == i && !used[i] && !used[j] {
			used[i], used[j] = true, true
			picked[k] = true
		}
	}
	order := make([]int, len(links))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		return links[order[a]].Support > links[order[b]].Support
	})
	for _, k := range order {
		out, in := linkEnds(links[k])
		i, j := endIndex[out], endIndex[in]
		if picked[k] || i == j || used[i] || used[j] {
			continue
		}
		used[i], used[j] = true, true
		picked[k] = true
	}

	var kept []ContigLink
	for k, link := range links {
		if picked[k] {
			kept = append(kept, link)
		}
	}
	log.Noticef("Contig end matching kept %s links", Percentage(len(kept), len(links)))
	return kept
}

// maxBipartiteMatchingWithWeights finds the assignment that maximizes the
// weights, wraps hungarianAlgorithm() which minimizes the costs, so we need
// to transform from weights to costs
func maxBipartiteMatchingWithWeights(weights [][]int) []int {
	maxCell := 0
	for _, row := range weights {
		for _, cell := range row {
			maxCell = max(maxCell, cell)
		}
	}
	N := len(weights)
	costs := Make2DSlice(N, N)
	for i, row := range weights {
		for j, cell := range row {
			costs[i][j] = maxCell - cell
		}
	}
	solution, err := hungarianAlgorithm.Solve(costs)
	if err != nil {
		log.Errorf("Matching failed: %s", err)
		return nil
	}
	return solution
}
