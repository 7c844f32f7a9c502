/*
 *  paf.go
 *  padena
 *
 *  Created by Haibao Tang on 06/28/19
 *  Copyright © 2019 Haibao Tang. All rights reserved.
 */

package padena

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Tag represents the additional info in the 12+ columns in the PAF
// file. The type of the tag is dynamically determined
//
// See also:
// https://github.com/lh3/minimap2/blob/master/minimap2.1
type Tag = interface{}

// PAFRecord holds one line in the PAF file
// The PAF format:
// https://github.com/lh3/miniasm/blob/master/PAF.md
type PAFRecord struct {
	Query           string         // Query sequence name
	QueryLength     int            // Query sequence length
	QueryStart      int            // Query start (0-based)
	QueryEnd        int            // Query end (0-based)
	RelativeStrand  byte           // `+' if query and target on the same strand; `-' if opposite
	Target          string         // Target sequence name
	TargetLength    int            // Target sequence length
	TargetStart     int            // Target start on original strand (0-based)
	TargetEnd       int            // Target end on original strand (0-based)
	NumMatches      int            // Number of matching bases in the mapping
	AlignmentLength int            // Number bases, including gaps, in the mapping
	MappingQuality  uint8          // Mapping quality (0-255 with 255 for missing)
	Tags            map[string]Tag // Tags, e.g. tp, cm etc.
}

// ParsePAF reads all records of a PAF stream, lines with fewer than 12
// columns are skipped
func ParsePAF(fh io.Reader) ([]PAFRecord, error) {
	var records []PAFRecord
	reader := bufio.NewReader(fh)
	for {
		row, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		row = strings.TrimSpace(row)
		if row == "" && err == io.EOF {
			break
		}
		words := strings.Split(row, "\t")
		if len(words) < 12 || len(words[4]) < 1 {
			if err == io.EOF {
				break
			}
			continue
		}

		var rec PAFRecord
		rec.Query = words[0]
		rec.QueryLength, _ = strconv.Atoi(words[1])
		rec.QueryStart, _ = strconv.Atoi(words[2])
		rec.QueryEnd, _ = strconv.Atoi(words[3])
		rec.RelativeStrand = words[4][0]
		rec.Target = words[5]
		rec.TargetLength, _ = strconv.Atoi(words[6])
		rec.TargetStart, _ = strconv.Atoi(words[7])
		rec.TargetEnd, _ = strconv.Atoi(words[8])
		rec.NumMatches, _ = strconv.Atoi(words[9])
		rec.AlignmentLength, _ = strconv.Atoi(words[10])
		mappingQuality, _ := strconv.Atoi(words[11])
		rec.MappingQuality = uint8(mappingQuality)
		rec.Tags = map[string]Tag{}

		for i := 12; i < len(words); i++ {
			tokens := strings.SplitN(words[i], ":", 3)
			if len(tokens) < 3 {
				continue
			}
			var tag Tag
			switch tokens[1] {
			case "i":
				tag, _ = strconv.Atoi(tokens[2])
			case "f":
				tag, _ = strconv.ParseFloat(tokens[2], 32)
			default:
				tag = tokens[2]
			}
			rec.Tags[tokens[0]] = tag
		}
		records = append(records, rec)
		if err == io.EOF {
			break
		}
	}
	return records, nil
}

// ReadMap converts the record to a read mapping on contig ci
func (r PAFRecord) ReadMap(ci int) ReadMap {
	m := ReadMap{
		Contig:      ci,
		ContigStart: r.TargetStart,
		ReadStart:   r.QueryStart,
		Length:      r.TargetEnd - r.TargetStart,
		Overlap:     PartialOverlap,
	}
	if r.RelativeStrand == '-' {
		m.Reverse = true
		m.ReadStart = r.QueryLength - r.QueryEnd
	}
	if r.QueryStart == 0 && r.QueryEnd == r.QueryLength {
		m.Overlap = FullOverlap
	}
	return m
}

// PafMapper takes the read mappings from a PAF file, as written by
// `minimap2 contigs.fasta reads.fasta`
type PafMapper struct {
	PafFile string
	// records below this mapping quality are ignored
	MinMappingQuality uint8
}

// Map implements ReadContigMapper
func (r *PafMapper) Map(contigs []Contig, reads []Read) (*ReadContigMap, error) {
	fh, err := os.Open(r.PafFile)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	log.Noticef("Parse paffile `%s`", r.PafFile)
	records, err := ParsePAF(fh)
	if err != nil {
		return nil, err
	}
	return mapRecords(contigs, reads, len(records), func(i int) (string, string, ReadMap, bool) {
		rec := records[i]
		ok := rec.MappingQuality >= r.MinMappingQuality
		return rec.Query, rec.Target, rec.ReadMap(0), ok
	})
}

// mapRecords groups the alignments of external mappers by read. get returns
// the read name, the contig name, a mapping with Contig unset and whether to
// keep the alignment.
func mapRecords(contigs []Contig, reads []Read, n int,
	get func(i int) (string, string, ReadMap, bool)) (*ReadContigMap, error) {
	contigToIdx := make(map[string]int, len(contigs))
	for i, contig := range contigs {
		contigToIdx[contig.Name] = i
	}
	maps := map[string][]ReadMap{}
	for i := 0; i < n; i++ {
		query, target, m, keep := get(i)
		if !keep {
			continue
		}
		ci, ok := contigToIdx[target]
		if !ok {
			continue
		}
		m.Contig = ci
		maps[query] = append(maps[query], m)
	}

	m := NewReadContigMap()
	for _, read := range reads {
		if err := m.Add(read.ID, len(read.Seq), maps[read.ID]); err != nil {
			return nil, err
		}
	}
	log.Noticef("Mapped %s reads to %d contigs", Percentage(m.Mapped(), m.Len()), len(contigs))
	return m, nil
}

// String outputs the PAF line without tags
func (r PAFRecord) String() string {
	return fmt.Sprintf("%s\t%d\t%d\t%d\t%c\t%s\t%d\t%d\t%d\t%d\t%d\t%d",
		r.Query, r.QueryLength, r.QueryStart, r.QueryEnd, r.RelativeStrand,
		r.Target, r.TargetLength, r.TargetStart, r.TargetEnd,
		r.NumMatches, r.AlignmentLength, r.MappingQuality)
}
