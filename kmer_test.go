/*
 *  kmer_test.go
 *  padena
 *
 *  Created by Haibao Tang on 03/02/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena_test

import (
	"errors"
	"testing"

	"github.com/tanghaibao/padena"
)

func TestPackKmer(t *testing.T) {
	x, ok := padena.PackKmer([]byte("ACGT"))
	if !ok {
		t.Fatal("ACGT should pack")
	}
	if x != 27 {
		t.Fatalf("PackKmer(ACGT) = %d, want 27", x)
	}
	if got := x.String(4); got != "ACGT" {
		t.Fatalf("String() = %s, want ACGT", got)
	}
	if _, ok := padena.PackKmer([]byte("ACNT")); ok {
		t.Fatal("ACNT should not pack")
	}
}

func TestCanonicalKmer(t *testing.T) {
	tests := []struct {
		kmer      string
		canonical string
		forward   bool
	}{
		{"AAAA", "AAAA", true},
		{"TTTT", "AAAA", false},
		{"ACGT", "ACGT", true}, // palindrome
		{"GGTA", "GGTA", true},
		{"TACC", "GGTA", false},
	}
	for _, tt := range tests {
		x, _ := padena.PackKmer([]byte(tt.kmer))
		c, forward := x.Canonical(4)
		if c.String(4) != tt.canonical || forward != tt.forward {
			t.Errorf("Canonical(%s) = %s, %v; want %s, %v",
				tt.kmer, c.String(4), forward, tt.canonical, tt.forward)
		}
	}
}

func TestReverseComplement(t *testing.T) {
	got := string(padena.ReverseComplement([]byte("AACGTTGC")))
	if got != "GCAACGTT" {
		t.Fatalf("ReverseComplement = %s, want GCAACGTT", got)
	}
	x, _ := padena.PackKmer([]byte("AACG"))
	if rc := x.ReverseComplement(4).String(4); rc != "CGTT" {
		t.Fatalf("Kmer.ReverseComplement = %s, want CGTT", rc)
	}
}

func TestKmerBuilder(t *testing.T) {
	kb := padena.KmerBuilder{K: 3}
	occurrences, err := kb.Build(padena.Read{ID: "r", Seq: []byte("ACGTT")})
	if err != nil {
		t.Fatal(err)
	}
	expected := []struct {
		kmer    string
		forward bool
	}{
		{"ACG", true},
		{"ACG", false},
		{"AAC", false},
	}
	if len(occurrences) != len(expected) {
		t.Fatalf("Got %d kmers, want %d", len(occurrences), len(expected))
	}
	for i, o := range occurrences {
		if o.Kmer.String(3) != expected[i].kmer || o.Forward != expected[i].forward || o.Position != i {
			t.Errorf("Kmer %d = %s/%v@%d, want %s/%v@%d", i, o.Kmer.String(3), o.Forward,
				o.Position, expected[i].kmer, expected[i].forward, i)
		}
	}

	occurrences, err = kb.Build(padena.Read{ID: "short", Seq: []byte("AC")})
	if err != nil || len(occurrences) != 0 {
		t.Fatalf("Short read should give no kmers, got %d (%v)", len(occurrences), err)
	}
}

func TestKmerBuilderInvalidRead(t *testing.T) {
	kb := padena.KmerBuilder{K: 3}
	_, err := kb.Build(padena.Read{ID: "bad", Seq: []byte("ACGNT")})
	if !errors.Is(err, padena.ErrInvalidSequence) {
		t.Fatalf("Expected ErrInvalidSequence, got %v", err)
	}
	kb.K = padena.MaxKmerLength + 1
	if _, err := kb.Build(padena.Read{ID: "r", Seq: []byte("ACGT")}); !errors.Is(err, padena.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput for k=%d, got %v", kb.K, err)
	}
}

func TestKmers(t *testing.T) {
	got := padena.Kmers("acgtt", 3)
	want := []string{"ACG", "CGT", "GTT"}
	if len(got) != len(want) {
		t.Fatalf("Kmers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Kmers = %v, want %v", got, want)
		}
	}
}
