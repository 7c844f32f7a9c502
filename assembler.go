/*
 *  assembler.go
 *  padena
 *
 *  Created by Haibao Tang on 03/26/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
)

// Assembly is the result of a run
type Assembly struct {
	K         int
	Contigs   []Contig
	Scaffolds []Scaffold
	Links     []ContigLink
	// overlap graph of the contigs, set when scaffolding
	ContigGraph *ContigGraph
}

// ParallelDeNovoAssembler runs the whole pipeline: graph construction,
// dangling link and bubble removal, contig building and scaffolding
type ParallelDeNovoAssembler struct {
	Config    Config
	Libraries *CloneLibrary    // needed for scaffolding
	Mapper    ReadContigMapper // defaults to a KmerMapper
	Graph     *DeBruijnGraph   // the purged graph after Assemble
}

// Assemble builds contigs, and scaffolds when enabled, from the reads
func (r *ParallelDeNovoAssembler) Assemble(reads []Read) (*Assembly, error) {
	c := r.Config
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(reads) == 0 {
		return nil, fmt.Errorf("%w: no reads", ErrInvalidInput)
	}
	k := c.KmerLength
	if k == 0 {
		k = EstimateKmerLength(reads)
		log.Noticef("Estimated kmer length k=%d", k)
	}
	longest := 0
	for _, read := range reads {
		longest = max(longest, len(read.Seq))
	}
	if k <= 0 || k > longest {
		return nil, fmt.Errorf("%w: kmer length %d exceeds the longest read (%d)", ErrInvalidInput, k, longest)
	}
	if k%2 == 0 {
		log.Warningf("Even kmer length %d allows palindromic kmers", k)
	}
	c.resolve(k)
	log.Noticef("Assemble %d reads: k=%d, dangle=%d, redundant=%d",
		len(reads), k, c.DangleThreshold, c.RedundantThreshold)

	builder := KmerGraphBuilder{
		K:                k,
		ImpliedEdges:     c.ImpliedEdges,
		SkipInvalidReads: c.SkipInvalidReads,
		Workers:          c.Workers,
	}
	g, err := builder.Build(reads)
	if err != nil {
		return nil, err
	}
	r.Graph = g

	dangling := DanglingLinksPurger{Threshold: c.DangleThreshold, Workers: c.Workers}
	dangling.Purge(g)
	redundant := RedundantPathsPurger{Threshold: c.RedundantThreshold, Workers: c.Workers}
	redundant.Purge(g)
	dangling.Purge(g)

	contigBuilder := ContigBuilder{CoverageThreshold: c.CoverageThreshold, Workers: c.Workers}
	assembly := &Assembly{K: k, Contigs: contigBuilder.Build(g)}
	if !c.Scaffold || len(assembly.Contigs) == 0 {
		log.Notice("Success")
		return assembly, nil
	}

	libraries := r.Libraries
	if libraries == nil {
		if libraries, err = NewCloneLibrary(); err != nil {
			return nil, err
		}
	}
	for _, lib := range c.Libraries {
		if err := libraries.AddLibrary(lib.Name, lib.Mean, lib.SD); err != nil {
			return nil, err
		}
	}
	scaffolder := GraphScaffoldBuilder{
		K:                   k,
		Depth:               c.Depth,
		Redundancy:          c.Redundancy,
		Tolerance:           c.Tolerance,
		MatchContigEnds:     c.MatchEnds,
		OppositeStrandMates: c.OppositeStrandMates,
		Workers:             c.Workers,
		Mapper:              r.Mapper,
		Libraries:           libraries,
	}
	assembly.Scaffolds, err = scaffolder.BuildScaffold(reads, assembly.Contigs)
	if err != nil {
		return nil, err
	}
	assembly.Links = scaffolder.Links
	assembly.ContigGraph = scaffolder.Graph
	log.Notice("Success")
	return assembly, nil
}
