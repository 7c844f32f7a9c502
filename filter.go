/*
 *  filter.go
 *  padena
 *
 *  Created by Haibao Tang on 03/16/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
	"math"
	"sort"
)

// ContigLink is the bundled mate pair evidence that oriented contig A is
// followed by oriented contig B. A is always the smaller contig index.
type ContigLink struct {
	A, B              int
	AReversed         bool
	BReversed         bool
	Distance          float64
	StandardDeviation float64
	Support           int
}

// From returns the first oriented contig of the link
func (r ContigLink) From() PathStep {
	return PathStep{r.A, r.AReversed}
}

// To returns the second oriented contig of the link
func (r ContigLink) To() PathStep {
	return PathStep{r.B, r.BReversed}
}

// String outputs the link as `A+ B- distance sd support`
func (r ContigLink) String() string {
	return fmt.Sprintf("%s\t%.1f\t%.1f\t%d",
		ScaffoldPath{r.From(), r.To()}, r.Distance, r.StandardDeviation, r.Support)
}

// linkClass is a link between two contigs in one of four orientations
type linkClass struct {
	a, b       int
	aRev, bRev bool
}

// classOf normalizes a mate pair so the smaller contig comes first. Reading
// A then B is the same as reading B reversed then A reversed.
func classOf(p ValidMatePair) linkClass {
	if p.ForwardContig < p.ReverseContig {
		return linkClass{p.ForwardContig, p.ReverseContig, p.ForwardReversed, p.ReverseReversed}
	}
	return linkClass{p.ReverseContig, p.ForwardContig, !p.ReverseReversed, !p.ForwardReversed}
}

// OrientationBasedMatePairFilter keeps, for every pair of contigs, the
// orientation supported by most mate pairs
type OrientationBasedMatePairFilter struct {
	Redundancy int // minimum number of mate pairs to keep a link
}

// FilterPairs drops self links, contig pairs whose best orientations tie,
// and links with less than Redundancy mate pairs
func (r *OrientationBasedMatePairFilter) FilterPairs(pairs *ContigMatePairs) *ContigMatePairs {
	type contigPair struct{ a, b int }
	classes := map[contigPair][]linkClass{}
	members := map[linkClass][]int{}
	var order []contigPair
	for i, p := range pairs.Pairs {
		if p.ForwardContig == p.ReverseContig {
			continue
		}
		c := classOf(p)
		key := contigPair{c.a, c.b}
		if _, ok := classes[key]; !ok {
			order = append(order, key)
		}
		if _, ok := members[c]; !ok {
			classes[key] = append(classes[key], c)
		}
		members[c] = append(members[c], i)
	}

	result := NewContigMatePairs(pairs.NumContigs())
	dropped := 0
	for _, key := range order {
		var best linkClass
		bestCount, tie := -1, false
		for _, c := range classes[key] {
			n := len(members[c])
			switch {
			case n > bestCount:
				best, bestCount, tie = c, n, false
			case n == bestCount:
				tie = true
			}
		}
		if tie || bestCount < r.Redundancy {
			for _, c := range classes[key] {
				dropped += len(members[c])
			}
			continue
		}
		for _, c := range classes[key] {
			if c == best {
				for _, i := range members[c] {
					result.Add(pairs.Pairs[i])
				}
			} else {
				dropped += len(members[c])
			}
		}
	}
	log.Noticef("Orientation filter (redundancy=%d) kept %s mate pairs, dropped %d",
		r.Redundancy, Percentage(result.Len(), pairs.Len()), dropped)
	return result
}

// DistanceCalculator turns the mate pairs of each link into one distance
type DistanceCalculator struct{}

// distanceBundle is a set of mate pairs with compatible distances
type distanceBundle struct {
	distance, sd float64
	weight       int
}

// minSD keeps the inverse variance finite for libraries with sd 0
const minSD = 1e-6

// CalculateDistances bundles the distances of each link. Distances within
// BundleSigma deviations are merged by inverse variance weighting, the
// bundles are then averaged by their number of pairs.
func (r *DistanceCalculator) CalculateDistances(pairs *ContigMatePairs) []ContigLink {
	groups := map[linkClass][]ValidMatePair{}
	var order []linkClass
	for _, p := range pairs.Pairs {
		c := classOf(p)
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], p)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].a != order[j].a {
			return order[i].a < order[j].a
		}
		return order[i].b < order[j].b
	})

	links := make([]ContigLink, 0, len(order))
	for _, c := range order {
		group := groups[c]
		sort.Slice(group, func(i, j int) bool { return group[i].Distance < group[j].Distance })
		var bundles []distanceBundle
		for _, p := range group {
			sd := math.Max(p.StandardDeviation, minSD)
			if n := len(bundles); n > 0 {
				last := &bundles[n-1]
				if math.Abs(p.Distance-last.distance) <= BundleSigma*math.Max(last.sd, sd) {
					w1, w2 := 1/(last.sd*last.sd), 1/(sd*sd)
					last.distance = (last.distance*w1 + p.Distance*w2) / (w1 + w2)
					last.sd = math.Sqrt(1 / (w1 + w2))
					last.weight++
					continue
				}
			}
			bundles = append(bundles, distanceBundle{p.Distance, sd, 1})
		}
		var sumD, sumSD float64
		for _, b := range bundles {
			sumD += b.distance * float64(b.weight)
			sumSD += b.sd * float64(b.weight)
		}
		n := float64(len(group))
		links = append(links, ContigLink{
			A: c.a, B: c.b, AReversed: c.aRev, BReversed: c.bRev,
			Distance:          sumD / n,
			StandardDeviation: sumSD / n,
			Support:           len(group),
		})
	}
	log.Noticef("Calculated distances for %d contig links", len(links))
	return links
}
