/*
 *  scaffold.go
 *  padena
 *
 *  Created by Haibao Tang on 03/23/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
)

// Scaffold is an oriented chain of contigs and its sequence
type Scaffold struct {
	Name     string
	Sequence string
	Path     ScaffoldPath
}

// GraphScaffoldBuilder links contigs into scaffolds with mate pairs
type GraphScaffoldBuilder struct {
	K                   int
	Depth               int
	Redundancy          int
	Tolerance           float64
	MatchContigEnds     bool
	OppositeStrandMates bool
	Workers             int
	Mapper              ReadContigMapper // defaults to a KmerMapper
	Libraries           *CloneLibrary

	// Filled by BuildScaffold
	Graph *ContigGraph
	Links []ContigLink
}

// Validate checks the parameters
func (r *GraphScaffoldBuilder) Validate() error {
	if r.K <= 0 {
		return fmt.Errorf("%w: kmer length %d", ErrInvalidInput, r.K)
	}
	if r.Depth <= 0 {
		return fmt.Errorf("%w: depth %d", ErrInvalidInput, r.Depth)
	}
	if r.Redundancy < 0 {
		return fmt.Errorf("%w: redundancy %d", ErrInvalidInput, r.Redundancy)
	}
	if r.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %g", ErrInvalidInput, r.Tolerance)
	}
	if r.Libraries == nil {
		return fmt.Errorf("%w: no clone library", ErrInvalidInput)
	}
	return nil
}

// BuildScaffold runs the scaffolding steps: contig graph, read mapping, mate
// pairs, orientation filter, distances, path search, path purging. Contigs
// not placed on any path come out as single contig scaffolds.
func (r *GraphScaffoldBuilder) BuildScaffold(reads []Read, contigs []Contig) ([]Scaffold, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	cg, err := BuildContigGraph(contigs, r.K, r.Workers)
	if err != nil {
		return nil, err
	}
	r.Graph = cg

	mapper := r.Mapper
	if mapper == nil {
		mapper = &KmerMapper{K: r.K, Workers: r.Workers}
	}
	readMap, err := mapper.Map(cg.Contigs, reads)
	if err != nil {
		return nil, err
	}

	mpm := MatePairMapper{
		Tolerance:           r.Tolerance,
		OppositeStrandMates: r.OppositeStrandMates,
		Graph:               cg,
		Depth:               r.Depth,
	}
	matePairs := mpm.Map(reads)
	contigPairs := mpm.MapContigToMatePairs(matePairs, readMap, cg.Contigs, r.Libraries)

	filter := OrientationBasedMatePairFilter{Redundancy: r.Redundancy}
	contigPairs = filter.FilterPairs(contigPairs)
	calculator := DistanceCalculator{}
	r.Links = calculator.CalculateDistances(contigPairs)
	if r.MatchContigEnds {
		r.Links = MatchContigEnds(r.Links)
	}

	tracer := TracePath{Depth: r.Depth, Tolerance: r.Tolerance, Workers: r.Workers}
	paths := tracer.FindPaths(cg, r.Links)
	purger := PathPurger{}
	paths = purger.PurgePaths(paths)

	return r.GenerateScaffolds(paths), nil
}

// GenerateScaffolds spells every path, then appends the unused contigs. A
// path that contradicts the overlap graph is dropped on its own.
func (r *GraphScaffoldBuilder) GenerateScaffolds(paths []ScaffoldPath) []Scaffold {
	cg := r.Graph
	used := make([]bool, len(cg.Contigs))
	var scaffolds []Scaffold
	for _, path := range paths {
		seq, err := BuildSequenceFromPath(cg, path)
		if err != nil {
			log.Warningf("Abort scaffold path: %s", err)
			continue
		}
		for _, step := range path {
			used[step.Contig] = true
		}
		scaffolds = append(scaffolds, Scaffold{Sequence: seq, Path: path})
	}
	joined := len(scaffolds)
	for i, contig := range cg.Contigs {
		if !used[i] {
			scaffolds = append(scaffolds, Scaffold{
				Sequence: contig.Sequence,
				Path:     ScaffoldPath{{i, false}},
			})
		}
	}
	for i := range scaffolds {
		scaffolds[i].Name = fmt.Sprintf("scaffold_%d", i+1)
	}
	log.Noticef("Built %d scaffolds (%d joined from multiple contigs)", len(scaffolds), joined)
	return scaffolds
}
