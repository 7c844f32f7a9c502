/**
 * Filename: /Users/bao/code/padena/bam_test.go
 * Path: /Users/bao/code/padena
 * Created Date: Wednesday, March 7th 2018, 2:31:05 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/tanghaibao/padena"
)

// writeMateBam aligns three reads of mateReads() to mateContigs()
func writeMateBam(t *testing.T) string {
	t.Helper()
	var refs []*sam.Reference
	for _, contig := range mateContigs() {
		ref, err := sam.NewReference(contig.Name, "", "", contig.Len(), nil, nil)
		if err != nil {
			t.Fatalf("NewReference failed: %v", err)
		}
		refs = append(refs, ref)
	}
	header, err := sam.NewHeader(nil, refs)
	if err != nil {
		t.Fatalf("NewHeader failed: %v", err)
	}

	bamfile := filepath.Join(t.TempDir(), "reads.bam")
	fh, err := os.Create(bamfile)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w, err := bam.NewWriter(fh, header, 1)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	records := []struct {
		name  string
		ref   *sam.Reference
		pos   int
		cigar sam.Cigar
		seq   string
		flags sam.Flags
	}{
		{"a.X1:0.5K", refs[0], 0, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 10)}, "GATCTGATAA", 0},
		{"a.Y1:0.5K", refs[1], 1, sam.Cigar{
			sam.NewCigarOp(sam.CigarSoftClipped, 2), sam.NewCigarOp(sam.CigarMatch, 8),
		}, "AATTTTGATG", sam.Reverse},
		{"b.F:0.5K", refs[0], 1, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 10)}, "ATCTGATAAG", sam.Duplicate},
	}
	for _, r := range records {
		rec, err := sam.NewRecord(r.name, r.ref, nil, r.pos, -1, 0, 60, r.cigar, []byte(r.seq), nil, nil)
		if err != nil {
			t.Fatalf("NewRecord failed: %v", err)
		}
		rec.Flags = r.flags
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := fh.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return bamfile
}

func TestBamMapper(t *testing.T) {
	mapper := padena.BamMapper{Bamfile: writeMateBam(t)}
	m, err := mapper.Map(mateContigs(), mateReads())
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if m.Mapped() != 2 {
		t.Fatalf("Expected 2 mapped reads, got %d", m.Mapped())
	}

	maps, _, _ := m.Get("a.X1:0.5K")
	expected := padena.ReadMap{Contig: 0, ContigStart: 0, ReadStart: 0, Length: 10, Overlap: padena.FullOverlap}
	if len(maps) != 1 || maps[0] != expected {
		t.Fatalf("Expected %+v, got %v", expected, maps)
	}

	maps, _, _ = m.Get("a.Y1:0.5K")
	expected = padena.ReadMap{Contig: 1, ContigStart: 1, ReadStart: 2, Length: 8,
		Overlap: padena.PartialOverlap, Reverse: true}
	if len(maps) != 1 || maps[0] != expected {
		t.Fatalf("Expected %+v, got %v", expected, maps)
	}

	if maps, _, _ := m.Get("b.F:0.5K"); len(maps) != 0 {
		t.Fatalf("Expected duplicate to be dropped, got %v", maps)
	}
}
