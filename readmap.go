/*
 *  readmap.go
 *  padena
 *
 *  Created by Haibao Tang on 03/12/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
	"sort"
)

// OverlapType tells whether the read is contained in the contig
type OverlapType int

const (
	// PartialOverlap means the read overhangs the contig end
	PartialOverlap OverlapType = iota
	// FullOverlap means the whole read matched inside the contig
	FullOverlap
)

// ReadMap is one matched segment between a read and a contig. When Reverse
// is set, the reverse complement of the read matched, and ReadStart is given
// on the reverse complement.
type ReadMap struct {
	Contig      int
	ContigStart int
	ReadStart   int
	Length      int
	Overlap     OverlapType
	Reverse     bool
}

// ReadStartInContig projects where the first base of the read lands, in the
// coordinates of the contig read in the orientation of the match
func (r ReadMap) ReadStartInContig(contigLength, readLength int) int {
	start := r.ContigStart - r.ReadStart
	if r.Reverse {
		return contigLength - start - readLength
	}
	return start
}

// readEntry holds all mappings of one read
type readEntry struct {
	ID     string
	Length int
	Maps   []ReadMap
}

// ReadContigMap stores the mappings of all reads, indexed by read id
type ReadContigMap struct {
	index map[string]int
	reads []readEntry
}

// ReadContigMapper is the oracle that maps reads to contigs
type ReadContigMapper interface {
	Map(contigs []Contig, reads []Read) (*ReadContigMap, error)
}

// NewReadContigMap makes an empty map
func NewReadContigMap() *ReadContigMap {
	return &ReadContigMap{index: map[string]int{}}
}

// Add records the mappings of a read, a read id can only be added once
func (r *ReadContigMap) Add(id string, length int, maps []ReadMap) error {
	if _, ok := r.index[id]; ok {
		return fmt.Errorf("%w: duplicate read id `%s`", ErrInvalidInput, id)
	}
	r.index[id] = len(r.reads)
	r.reads = append(r.reads, readEntry{id, length, maps})
	return nil
}

// Get returns the mappings and the length of a read
func (r *ReadContigMap) Get(id string) ([]ReadMap, int, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, 0, false
	}
	return r.reads[i].Maps, r.reads[i].Length, true
}

// Len returns the number of reads
func (r *ReadContigMap) Len() int {
	return len(r.reads)
}

// Mapped returns the number of reads with at least one mapping
func (r *ReadContigMap) Mapped() int {
	mapped := 0
	for _, entry := range r.reads {
		if len(entry.Maps) > 0 {
			mapped++
		}
	}
	return mapped
}

// KmerMapper maps reads by exact kmer hits on the contigs. Hits that are
// consecutive in both the read and the contig are merged into one ReadMap.
type KmerMapper struct {
	K       int
	Workers int
}

type contigHit struct {
	contig, position int32
}

// Map implements ReadContigMapper
func (r *KmerMapper) Map(contigs []Contig, reads []Read) (*ReadContigMap, error) {
	k := r.K
	if k <= 0 || k > MaxKmerLength {
		return nil, fmt.Errorf("%w: kmer length %d not in [1, %d]", ErrInvalidInput, k, MaxKmerLength)
	}
	index := map[Kmer][]contigHit{}
	for ci, contig := range contigs {
		seq := []byte(contig.Sequence)
		for i := 0; i+k <= len(seq); i++ {
			if x, ok := PackKmer(seq[i : i+k]); ok {
				index[x] = append(index[x], contigHit{int32(ci), int32(i)})
			}
		}
	}

	maps := make([][]ReadMap, len(reads))
	_ = parallelFor(len(reads), r.Workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			seq := reads[i].Seq
			maps[i] = append(mapStrand(index, seq, k, false),
				mapStrand(index, ReverseComplement(seq), k, true)...)
		}
		return nil
	})

	m := NewReadContigMap()
	for i, read := range reads {
		if err := m.Add(read.ID, len(read.Seq), maps[i]); err != nil {
			return nil, err
		}
	}
	log.Noticef("Mapped %s reads to %d contigs", Percentage(m.Mapped(), m.Len()), len(contigs))
	return m, nil
}

// mapStrand collects the hits of one strand of a read and merges the runs
// that lie on the same diagonal
func mapStrand(index map[Kmer][]contigHit, seq []byte, k int, reverse bool) []ReadMap {
	type hit struct {
		contig, diagonal, pos int
	}
	var hits []hit
	for i := 0; i+k <= len(seq); i++ {
		x, ok := PackKmer(seq[i : i+k])
		if !ok {
			continue
		}
		for _, h := range index[x] {
			hits = append(hits, hit{int(h.contig), int(h.position) - i, i})
		}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].contig != hits[b].contig {
			return hits[a].contig < hits[b].contig
		}
		if hits[a].diagonal != hits[b].diagonal {
			return hits[a].diagonal < hits[b].diagonal
		}
		return hits[a].pos < hits[b].pos
	})

	var maps []ReadMap
	for a := 0; a < len(hits); {
		b := a + 1
		for b < len(hits) && hits[b].contig == hits[a].contig &&
			hits[b].diagonal == hits[a].diagonal && hits[b].pos == hits[b-1].pos+1 {
			b++
		}
		length := hits[b-1].pos - hits[a].pos + k
		overlap := PartialOverlap
		if length == len(seq) {
			overlap = FullOverlap
		}
		maps = append(maps, ReadMap{
			Contig:      hits[a].contig,
			ContigStart: hits[a].diagonal + hits[a].pos,
			ReadStart:   hits[a].pos,
			Length:      length,
			Overlap:     overlap,
			Reverse:     reverse,
		})
		a = b
	}
	return maps
}
