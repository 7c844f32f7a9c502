/**
 * Filename: /Users/bao/code/padena/bam.go
 * Path: /Users/bao/code/padena
 * Created Date: Wednesday, March 7th 2018, 1:56:45 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena

import (
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// BamMapper takes the read mappings from a BAM file of reads aligned to the
// contigs. Read names in the BAM must match the read ids.
type BamMapper struct {
	Bamfile string
	// records below this mapping quality are ignored
	MinMappingQuality byte
}

// clips returns the clipped bases at both ends of an alignment
func clips(cigar sam.Cigar) (int, int) {
	leading, trailing := 0, 0
	for _, op := range cigar {
		t := op.Type()
		if t != sam.CigarSoftClipped && t != sam.CigarHardClipped {
			break
		}
		leading += op.Len()
	}
	for i := len(cigar) - 1; i >= 0; i-- {
		t := cigar[i].Type()
		if t != sam.CigarSoftClipped && t != sam.CigarHardClipped {
			break
		}
		trailing += cigar[i].Len()
	}
	return leading, trailing
}

// bamReadMap converts one alignment. BAM stores reverse hits as the reverse
// complement of the read, so the leading clip is already the ReadStart on
// the reverse complement.
func bamReadMap(rec *sam.Record) ReadMap {
	leading, trailing := clips(rec.Cigar)
	m := ReadMap{
		ContigStart: rec.Pos,
		ReadStart:   leading,
		Length:      rec.Len(),
		Overlap:     PartialOverlap,
		Reverse:     rec.Flags&sam.Reverse != 0,
	}
	if leading == 0 && trailing == 0 {
		m.Overlap = FullOverlap
	}
	return m
}

// Map implements ReadContigMapper
func (r *BamMapper) Map(contigs []Contig, reads []Read) (*ReadContigMap, error) {
	fh, err := os.Open(r.Bamfile)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	log.Noticef("Parse bamfile `%s`", r.Bamfile)
	br, err := bam.NewReader(fh, 0)
	if err != nil {
		return nil, err
	}
	defer br.Close()

	lengths := make(map[string]int, len(contigs))
	for _, contig := range contigs {
		lengths[contig.Name] = contig.Len()
	}
	for _, ref := range br.Header().Refs() {
		// Sanity check to see if the contig length match up between the bam and fasta
		if length, ok := lengths[ref.Name()]; ok && length != ref.Len() {
			log.Errorf("Length mismatch: %s (fasta: %d bam:%d)", ref.Name(), length, ref.Len())
		}
	}

	var records []*sam.Record
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// Filtering: Unmapped | QCFail | Duplicate
		if rec.Flags&(sam.Unmapped|sam.QCFail|sam.Duplicate) != 0 || rec.Ref == nil {
			continue
		}
		records = append(records, rec)
	}

	return mapRecords(contigs, reads, len(records), func(i int) (string, string, ReadMap, bool) {
		rec := records[i]
		return rec.Name, rec.Ref.Name(), bamReadMap(rec), rec.MapQ >= r.MinMappingQuality
	})
}
