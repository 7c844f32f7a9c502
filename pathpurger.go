/*
 *  pathpurger.go
 *  padena
 *
 *  Created by Haibao Tang on 03/22/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"sort"
)

// PathPurger merges the traced paths: paths contained in others go away and
// paths that overlap at their ends are stitched together
type PathPurger struct{}

// PurgePaths repeats containment removal and stitching until stable
func (r *PathPurger) PurgePaths(paths []ScaffoldPath) []ScaffoldPath {
	kept := make([]ScaffoldPath, len(paths))
	copy(kept, paths)
	for {
		sort.SliceStable(kept, func(i, j int) bool {
			if len(kept[i]) != len(kept[j]) {
				return len(kept[i]) > len(kept[j])
			}
			return kept[i].String() < kept[j].String()
		})
		kept = removeContained(kept)
		stitched := false
		for i := 0; i < len(kept) && !stitched; i++ {
			for j := 0; j < len(kept) && !stitched; j++ {
				if i == j {
					continue
				}
				for _, other := range []ScaffoldPath{kept[j], kept[j].Reversed()} {
					if s, ok := stitchPaths(kept[i], other); ok {
						kept[i] = s
						kept = append(kept[:j], kept[j+1:]...)
						stitched = true
						break
					}
				}
			}
		}
		if !stitched {
			break
		}
	}
	log.Noticef("Path purger kept %d of %d paths", len(kept), len(paths))
	return kept
}

// removeContained drops every path whose contigs all sit on an earlier,
// longer or equal, path. The paths must be sorted longest first.
func removeContained(paths []ScaffoldPath) []ScaffoldPath {
	var kept []ScaffoldPath
	for _, p := range paths {
		contained := false
		for _, q := range kept {
			if containsAll(q, p) {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, p)
		}
	}
	return kept
}

// containsAll checks if every contig of p is on q
func containsAll(q, p ScaffoldPath) bool {
	for _, step := range p {
		if !q.contains(step.Contig) {
			return false
		}
	}
	return true
}

// stitchPaths joins q after p when a suffix of p equals a prefix of q, and
// the rest of q brings no contig already on p
func stitchPaths(p, q ScaffoldPath) (ScaffoldPath, bool) {
	for m := min(len(p), len(q)) - 1; m >= 1; m-- {
		match := true
		for i := 0; i < m; i++ {
			if p[len(p)-m+i] != q[i] {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		for _, step := range q[m:] {
			if p.contains(step.Contig) {
				return nil, false
			}
		}
		joined := make(ScaffoldPath, 0, len(p)+len(q)-m)
		joined = append(joined, p...)
		return append(joined, q[m:]...), true
	}
	return nil, false
}
