/*
 *  readmap_test.go
 *  padena
 *
 *  Created by Haibao Tang on 03/12/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena_test

import (
	"errors"
	"testing"

	"github.com/tanghaibao/padena"
)

func TestKmerMapper(t *testing.T) {
	reads := []padena.Read{
		{ID: "full", Seq: []byte("TCTGATAA")},
		{ID: "reverse", Seq: []byte("CCATCAAA")},
		{ID: "partial", Seq: []byte("GATAAGGCCCC")},
		{ID: "none", Seq: []byte("CCCCCCCC")},
	}
	mapper := padena.KmerMapper{K: 6, Workers: 2}
	m, err := mapper.Map(mateContigs(), reads)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if m.Len() != 4 || m.Mapped() != 3 {
		t.Fatalf("Expected 3 of 4 reads mapped, got %d of %d", m.Mapped(), m.Len())
	}

	tests := []struct {
		id       string
		expected padena.ReadMap
	}{
		{"full", padena.ReadMap{Contig: 0, ContigStart: 2, ReadStart: 0, Length: 8, Overlap: padena.FullOverlap}},
		{"reverse", padena.ReadMap{Contig: 1, ContigStart: 2, ReadStart: 0, Length: 8,
			Overlap: padena.FullOverlap, Reverse: true}},
		{"partial", padena.ReadMap{Contig: 0, ContigStart: 5, ReadStart: 0, Length: 7, Overlap: padena.PartialOverlap}},
	}
	for _, tt := range tests {
		maps, _, ok := m.Get(tt.id)
		if !ok || len(maps) != 1 || maps[0] != tt.expected {
			t.Fatalf("%s: expected %+v, got %v", tt.id, tt.expected, maps)
		}
	}
	if maps, _, ok := m.Get("none"); !ok || len(maps) != 0 {
		t.Fatalf("Expected no mapping, got %v", maps)
	}
	if _, _, ok := m.Get("absent"); ok {
		t.Fatal("Unexpected read")
	}
}

func TestKmerMapperInvalid(t *testing.T) {
	mapper := padena.KmerMapper{K: 0}
	if _, err := mapper.Map(mateContigs(), mateReads()); !errors.Is(err, padena.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	mapper.K = 6
	reads := []padena.Read{{ID: "dup", Seq: []byte("ACGT")}, {ID: "dup", Seq: []byte("ACGT")}}
	if _, err := mapper.Map(mateContigs(), reads); !errors.Is(err, padena.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput for duplicate ids, got %v", err)
	}
}
