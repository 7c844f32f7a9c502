/*
 *  matepair.go
 *  padena
 *
 *  Created by Haibao Tang on 03/14/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"math"
	"regexp"
	"strings"
)

// MatePair is a forward and a reverse read from the same clone
type MatePair struct {
	ForwardReadID string
	ReverseReadID string
	Library       string
}

// ValidMatePair is a mate pair whose reads land on two distinct contigs.
// Positions are given on the contigs read in the orientation of the link:
// ForwardStart is where the forward read starts, ReverseStart is where the
// reverse read ends.
type ValidMatePair struct {
	Pair              MatePair
	ForwardContig     int
	ReverseContig     int
	ForwardReversed   bool
	ReverseReversed   bool
	ForwardStart      int
	ReverseStart      int
	Distance          float64
	StandardDeviation float64
}

// SameOrientation checks if both contigs are read on the same strand
func (r ValidMatePair) SameOrientation() bool {
	return r.ForwardReversed == r.ReverseReversed
}

// ContigMatePairs collects valid mate pairs, indexed by forward contig
type ContigMatePairs struct {
	Pairs     []ValidMatePair
	byForward [][]int
}

// NewContigMatePairs makes an empty collection for n contigs
func NewContigMatePairs(n int) *ContigMatePairs {
	return &ContigMatePairs{byForward: make([][]int, n)}
}

// Add appends a valid mate pair
func (r *ContigMatePairs) Add(p ValidMatePair) {
	r.byForward[p.ForwardContig] = append(r.byForward[p.ForwardContig], len(r.Pairs))
	r.Pairs = append(r.Pairs, p)
}

// Get lists the pairs from the forward contig to the reverse contig
func (r *ContigMatePairs) Get(forward, reverse int) []ValidMatePair {
	var pairs []ValidMatePair
	for _, i := range r.byForward[forward] {
		if r.Pairs[i].ReverseContig == reverse {
			pairs = append(pairs, r.Pairs[i])
		}
	}
	return pairs
}

// Len returns the number of valid mate pairs
func (r *ContigMatePairs) Len() int {
	return len(r.Pairs)
}

// NumContigs returns the number of contigs the collection was made for
func (r *ContigMatePairs) NumContigs() int {
	return len(r.byForward)
}

// MatePairMapper pairs reads by their ids and places the pairs on contigs
type MatePairMapper struct {
	Tolerance           float64 // number of sd the implied distance may go below 0
	OppositeStrandMates bool    // reverse mates are sequenced from the other strand
	// When set, placements joined by at most Depth overlaps are preferred
	Graph *ContigGraph
	Depth int
}

// Mate read ids look like name.X1:LIB / name.Y1:LIB, name.F:LIB / name.R:LIB
// or name.1:LIB / name.2:LIB
var mateIDPattern = regexp.MustCompile(`(?i)^>?(.+)\.(x1|y1|f|r|1|2):(.+)$`)

// ParseMateID splits a mate read id into the clone name, the direction and
// the library
func ParseMateID(id string) (name string, forward bool, library string, ok bool) {
	m := mateIDPattern.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return "", false, "", false
	}
	switch strings.ToLower(m[2]) {
	case "x1", "f", "1":
		forward = true
	}
	return m[1], forward, m[3], true
}

// Map pairs up the reads following the id convention. Reads without a mate
// are ignored.
func (r *MatePairMapper) Map(reads []Read) []MatePair {
	type clone struct{ name, library string }
	forwards := map[clone]string{}
	reverses := map[clone]string{}
	var order []clone
	for _, read := range reads {
		name, forward, library, ok := ParseMateID(read.ID)
		if !ok {
			continue
		}
		key := clone{name, library}
		_, fseen := forwards[key]
		_, rseen := reverses[key]
		if !fseen && !rseen {
			order = append(order, key)
		}
		mates := reverses
		if forward {
			mates = forwards
		}
		if _, dup := mates[key]; dup {
			log.Warningf("Duplicate mate `%s` ignored", read.ID)
			continue
		}
		mates[key] = read.ID
	}

	var pairs []MatePair
	for _, key := range order {
		f, fok := forwards[key]
		rv, rok := reverses[key]
		if fok && rok {
			pairs = append(pairs, MatePair{f, rv, key.library})
		}
	}
	log.Noticef("Found %d mate pairs in %d reads", len(pairs), len(reads))
	return pairs
}

// MapContigToMatePairs places every mate pair on the contigs its reads map
// to. When a read maps to several places, combinations whose contigs are
// connected in the overlap graph come first, then the one whose implied
// distance is closest to the library mean wins.
func (r *MatePairMapper) MapContigToMatePairs(pairs []MatePair, m *ReadContigMap,
	contigs []Contig, libraries *CloneLibrary) *ContigMatePairs {
	result := NewContigMatePairs(len(contigs))
	unknown := map[string]bool{}
	for _, pair := range pairs {
		lib, err := libraries.GetLibraryInformation(pair.Library)
		if err != nil {
			if !unknown[pair.Library] {
				log.Warningf("Skip mate pairs: %s", err)
				unknown[pair.Library] = true
			}
			continue
		}
		fmaps, flen, ok := m.Get(pair.ForwardReadID)
		if !ok || len(fmaps) == 0 {
			continue
		}
		rmaps, rlen, ok := m.Get(pair.ReverseReadID)
		if !ok || len(rmaps) == 0 {
			continue
		}
		if vmp, ok := r.bestPlacement(pair, lib, preferFull(fmaps), flen,
			preferFull(rmaps), rlen, contigs); ok {
			result.Add(vmp)
		}
	}
	log.Noticef("Placed %s mate pairs across contigs", Percentage(result.Len(), len(pairs)))
	return result
}

// bestPlacement scores every combination of forward and reverse hits
func (r *MatePairMapper) bestPlacement(pair MatePair, lib CloneLibraryInformation,
	fmaps []ReadMap, flen int, rmaps []ReadMap, rlen int, contigs []Contig) (ValidMatePair, bool) {
	var candidates []ValidMatePair
	for _, fm := range fmaps {
		for _, rm := range rmaps {
			if fm.Contig == rm.Contig {
				continue
			}
			if r.OppositeStrandMates {
				rm.Reverse = !rm.Reverse
			}
			p1 := fm.ReadStartInContig(contigs[fm.Contig].Len(), flen)
			p2 := rm.ReadStartInContig(contigs[rm.Contig].Len(), rlen)
			span := contigs[fm.Contig].Len() - p1 + p2 + rlen
			distance := lib.MeanLength - float64(span)
			if distance < -r.Tolerance*lib.StandardDeviation {
				continue
			}
			candidates = append(candidates, ValidMatePair{
				Pair:              pair,
				ForwardContig:     fm.Contig,
				ReverseContig:     rm.Contig,
				ForwardReversed:   fm.Reverse,
				ReverseReversed:   rm.Reverse,
				ForwardStart:      p1,
				ReverseStart:      p2 + rlen - 1,
				Distance:          distance,
				StandardDeviation: lib.StandardDeviation,
			})
		}
	}
	if len(candidates) == 0 {
		return ValidMatePair{}, false
	}
	if len(candidates) > 1 && r.Graph != nil {
		var connected []ValidMatePair
		for _, p := range candidates {
			from := PathStep{p.ForwardContig, p.ForwardReversed}
			to := PathStep{p.ReverseContig, p.ReverseReversed}
			if r.Graph.Connected(from, to, r.Depth) {
				connected = append(connected, p)
			}
		}
		if len(connected) > 0 {
			candidates = connected
		}
	}
	best := candidates[0]
	for _, p := range candidates[1:] {
		if math.Abs(p.Distance) < math.Abs(best.Distance) {
			best = p
		}
	}
	return best, true
}

// preferFull keeps the full overlaps if there are any
func preferFull(maps []ReadMap) []ReadMap {
	var full []ReadMap
	for _, m := range maps {
		if m.Overlap == FullOverlap {
			full = append(full, m)
		}
	}
	if len(full) > 0 {
		return full
	}
	return maps
}
