/*
 *  contig_graph_test.go
 *  padena
 *
 *  Created by Haibao Tang on 03/09/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena_test

import (
	"errors"
	"testing"

	"github.com/tanghaibao/padena"
)

// scaffoldContigs spell CATTACCTTGAGGCA for k=4 as 0+ 1+ 2-
func scaffoldContigs() []padena.Contig {
	return []padena.Contig{
		{Name: "contig_1", Sequence: "CATTACC"},
		{Name: "contig_2", Sequence: "ACCTTGA"},
		{Name: "contig_3", Sequence: "TGCCTCA"},
	}
}

func buildContigGraph(t *testing.T) *padena.ContigGraph {
	t.Helper()
	cg, err := padena.BuildContigGraph(scaffoldContigs(), 4, 2)
	if err != nil {
		t.Fatalf("BuildContigGraph failed: %v", err)
	}
	return cg
}

func TestBuildContigGraph(t *testing.T) {
	cg := buildContigGraph(t)
	tests := []struct {
		name string
		got  []padena.ContigEdge
		want []padena.ContigEdge
	}{
		{"left of 0", cg.Left[0], nil},
		{"right of 0", cg.Right[0], []padena.ContigEdge{{To: 1, SameOrientation: true}}},
		{"left of 1", cg.Left[1], []padena.ContigEdge{{To: 0, SameOrientation: true}}},
		{"right of 1", cg.Right[1], []padena.ContigEdge{{To: 2, SameOrientation: false}}},
		{"left of 2", cg.Left[2], nil},
		{"right of 2", cg.Right[2], []padena.ContigEdge{{To: 1, SameOrientation: false}}},
	}
	for _, tt := range tests {
		if len(tt.got) != len(tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
		for i := range tt.want {
			if tt.got[i] != tt.want[i] {
				t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
			}
		}
	}
	if n := cg.ExtensionsCount(1); n != 2 {
		t.Fatalf("Expected 2 extensions on contig 1, got %d", n)
	}
}

func TestContigGraphNext(t *testing.T) {
	cg := buildContigGraph(t)
	step := func(c int, rev bool) padena.PathStep { return padena.PathStep{Contig: c, Reverse: rev} }

	if !cg.HasEdge(step(0, false), step(1, false)) {
		t.Fatal("Expected 0+ -> 1+")
	}
	if !cg.HasEdge(step(1, false), step(2, true)) {
		t.Fatal("Expected 1+ -> 2-")
	}
	if !cg.HasEdge(step(2, false), step(1, true)) {
		t.Fatal("Expected 2+ -> 1-")
	}
	if !cg.HasEdge(step(1, true), step(0, true)) {
		t.Fatal("Expected 1- -> 0-")
	}
	if cg.HasEdge(step(0, false), step(2, false)) {
		t.Fatal("Unexpected 0+ -> 2+")
	}
	if next := cg.Next(step(0, true)); len(next) != 0 {
		t.Fatalf("Expected nothing after 0-, got %v", next)
	}
	if s := cg.OrientedSequence(step(2, true)); s != "TGAGGCA" {
		t.Fatalf("Expected TGAGGCA, got %s", s)
	}
}

func TestBuildContigGraphInvalid(t *testing.T) {
	if _, err := padena.BuildContigGraph(scaffoldContigs(), 1, 1); !errors.Is(err, padena.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput for k=1, got %v", err)
	}
	if _, err := padena.BuildContigGraph(scaffoldContigs(), 8, 1); !errors.Is(err, padena.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput for short contigs, got %v", err)
	}
}

func TestBuildContigGraphLowercase(t *testing.T) {
	contigs := scaffoldContigs()
	contigs[1].Sequence = "accttga"
	cg, err := padena.BuildContigGraph(contigs, 4, 1)
	if err != nil {
		t.Fatalf("BuildContigGraph failed: %v", err)
	}
	if cg.Contigs[1].Sequence != "ACCTTGA" {
		t.Fatalf("Expected uppercase contig, got %s", cg.Contigs[1].Sequence)
	}
	if len(cg.Right[0]) != 1 {
		t.Fatalf("Expected lowercase contig to be linked, got %v", cg.Right[0])
	}
}

func TestBuildContigGraphSelfAndPalindrome(t *testing.T) {
	contigs := []padena.Contig{
		{Name: "contig_1", Sequence: "AAAAAA"},
		{Name: "contig_2", Sequence: "ATGCG"},
		{Name: "contig_3", Sequence: "GCGCGC"},
	}
	cg, err := padena.BuildContigGraph(contigs, 4, 2)
	if err != nil {
		t.Fatalf("BuildContigGraph failed: %v", err)
	}
	if n := cg.ExtensionsCount(0); n != 0 {
		t.Fatalf("Expected no self links on contig 0, got %v %v", cg.Left[0], cg.Right[0])
	}
	if cg.IsPalindrome(1) || !cg.IsPalindrome(2) {
		t.Fatal("Expected only contig 2 to be a palindrome")
	}
	// GCG and its reverse complement CGC both reach the palindrome
	want := []padena.ContigEdge{{To: 2, SameOrientation: true}}
	if len(cg.Right[1]) != 1 || cg.Right[1][0] != want[0] {
		t.Fatalf("Expected %v right of 1, got %v", want, cg.Right[1])
	}

	step := func(c int, rev bool) padena.PathStep { return padena.PathStep{Contig: c, Reverse: rev} }
	if !cg.Equivalent(step(2, false), step(2, true)) {
		t.Fatal("Expected both strands of a palindrome to be equivalent")
	}
	if cg.Equivalent(step(1, false), step(1, true)) {
		t.Fatal("Expected strands of contig 1 to differ")
	}
	if !cg.HasEdge(step(1, false), step(2, true)) {
		t.Fatal("Expected 1+ -> 2-")
	}
	if !cg.Connected(step(1, false), step(2, true), 1) {
		t.Fatal("Expected 1+ connected to 2-")
	}
	if cg.Connected(step(0, false), step(2, false), 3) {
		t.Fatal("Expected 0+ not connected to 2+")
	}
}
