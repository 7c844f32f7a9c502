/*
 *  tracepath.go
 *  padena
 *
 *  Created by Haibao Tang on 03/21/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MaxTracePaths caps the number of partial paths kept for a single seed
const MaxTracePaths = 1 << 16

// PathStep is one contig on a scaffold path and the strand it is read on
type PathStep struct {
	Contig  int
	Reverse bool
}

// ScaffoldPath is an ordered walk through the contig overlap graph
type ScaffoldPath []PathStep

// String prints the path as contig ids with strands, e.g. 0+ 3- 2+
func (r ScaffoldPath) String() string {
	words := make([]string, len(r))
	for i, step := range r {
		strand := '+'
		if step.Reverse {
			strand = '-'
		}
		words[i] = fmt.Sprintf("%d%c", step.Contig, strand)
	}
	return strings.Join(words, " ")
}

// Reversed returns the same path read on the other strand
func (r ScaffoldPath) Reversed() ScaffoldPath {
	rev := make(ScaffoldPath, len(r))
	for i, step := range r {
		rev[len(r)-1-i] = PathStep{step.Contig, !step.Reverse}
	}
	return rev
}

// linkTarget is an oriented contig expected at some distance after a seed
type linkTarget struct {
	step     PathStep
	distance float64
	sd       float64
}

// TracePath searches the contig overlap graph for paths that agree with the
// mate pair links
type TracePath struct {
	Depth     int
	Tolerance float64
	Workers   int
}

// tracedState is a partial path and where its last contig starts, relative
// to the end of the seed
type tracedState struct {
	path  ScaffoldPath
	start int
}

// FindPaths runs a breadth-first search from every oriented contig that has
// links. A path to a linked contig is kept when its length matches the link
// distance within Tolerance deviations.
func (r *TracePath) FindPaths(cg *ContigGraph, links []ContigLink) []ScaffoldPath {
	targets := map[PathStep][]linkTarget{}
	for _, link := range links {
		from, to := link.From(), link.To()
		targets[from] = append(targets[from], linkTarget{to, link.Distance, link.StandardDeviation})
		rfrom := PathStep{to.Contig, !to.Reverse}
		rto := PathStep{from.Contig, !from.Reverse}
		targets[rfrom] = append(targets[rfrom], linkTarget{rto, link.Distance, link.StandardDeviation})
	}
	seeds := make([]PathStep, 0, len(targets))
	for seed := range targets {
		seeds = append(seeds, seed)
	}
	sort.Slice(seeds, func(i, j int) bool { return stepLess(seeds[i], seeds[j]) })

	found := make([][]ScaffoldPath, len(seeds))
	_ = parallelFor(len(seeds), r.Workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			found[i] = r.traceSeed(cg, seeds[i], targets[seeds[i]])
		}
		return nil
	})
	var paths []ScaffoldPath
	for _, seedPaths := range found {
		paths = append(paths, seedPaths...)
	}
	log.Noticef("Traced %d paths from %d seeds (depth=%d)", len(paths), len(seeds), r.Depth)
	return paths
}

// traceSeed explores up to Depth contigs away from the seed
func (r *TracePath) traceSeed(cg *ContigGraph, seed PathStep, targets []linkTarget) []ScaffoldPath {
	maxDistance := math.Inf(-1)
	for _, t := range targets {
		maxDistance = math.Max(maxDistance, t.distance+r.Tolerance*t.sd)
	}
	type hit struct {
		path      ScaffoldPath
		deviation float64
	}
	best := map[PathStep]hit{}
	k := cg.K

	queue := []tracedState{{ScaffoldPath{seed}, -cg.Contigs[seed.Contig].Len()}}
	explored := 0
	for len(queue) > 0 && explored < MaxTracePaths {
		state := queue[0]
		queue = queue[1:]
		explored++
		if len(state.path) > r.Depth {
			continue
		}
		last := state.path[len(state.path)-1]
		start := state.start + cg.Contigs[last.Contig].Len() - (k - 1)
		if float64(start) > maxDistance {
			continue
		}
		for _, next := range cg.Next(last) {
			if state.path.contains(next.Contig) {
				continue
			}
			path := make(ScaffoldPath, len(state.path), len(state.path)+1)
			copy(path, state.path)
			path = append(path, next)
			for _, t := range targets {
				if !cg.Equivalent(t.step, next) {
					continue
				}
				deviation := math.Abs(float64(start) - t.distance)
				if deviation > r.Tolerance*t.sd {
					continue
				}
				if h, ok := best[t.step]; !ok || deviation < h.deviation {
					best[t.step] = hit{path, deviation}
				}
			}
			queue = append(queue, tracedState{path, start})
		}
	}

	var paths []ScaffoldPath
	for _, t := range targets {
		if h, ok := best[t.step]; ok {
			paths = append(paths, h.path)
			delete(best, t.step)
		}
	}
	return paths
}

// contains checks if the contig is already on the path
func (r ScaffoldPath) contains(contig int) bool {
	for _, step := range r {
		if step.Contig == contig {
			return true
		}
	}
	return false
}

// stepLess orders path steps by contig then strand
func stepLess(a, b PathStep) bool {
	if a.Contig != b.Contig {
		return a.Contig < b.Contig
	}
	return !a.Reverse && b.Reverse
}

// BuildSequenceFromPath spells a path, each junction drops the K-1 bases
// shared with the previous contig. Fails when a step does not follow the
// overlap graph with the recorded strands.
func BuildSequenceFromPath(cg *ContigGraph, path ScaffoldPath) (string, error) {
	if len(path) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString(cg.OrientedSequence(path[0]))
	for i := 1; i < len(path); i++ {
		if !cg.HasEdge(path[i-1], path[i]) {
			return "", fmt.Errorf("%w: %s cannot follow %s in path %s", ErrInconsistentOrientation,
				ScaffoldPath{path[i]}, ScaffoldPath{path[i-1]}, path)
		}
		sb.WriteString(cg.OrientedSequence(path[i])[cg.K-1:])
	}
	return sb.String(), nil
}
