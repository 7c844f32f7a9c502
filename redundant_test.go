/*
 *  redundant_test.go
 *  padena
 *
 *  Created by Haibao Tang on 03/06/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena_test

import (
	"testing"

	"github.com/tanghaibao/padena"
)

func TestRedundantPathsPurger(t *testing.T) {
	const k = 5
	g := buildGraph(t, redundantReads(), k)
	if g.NodeCount() != 28 {
		t.Fatalf("Expected 28 nodes, got %d", g.NodeCount())
	}

	purger := padena.RedundantPathsPurger{Threshold: 3 * (k + 1), Workers: 2}
	bubbles := purger.DetectErroneousNodes(g)
	if len(bubbles) == 0 {
		t.Fatal("Expected the SNP to form a bubble")
	}
	if g.NodeCount() != 28 {
		t.Fatal("Detection should not modify the graph")
	}

	if removed := purger.Purge(g); removed != 5 {
		t.Fatalf("Expected 5 nodes removed, got %d", removed)
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}

	// Every kmer of the true sequence survives, the SNP kmers are gone
	for _, kmer := range padena.Kmers("ATGCCTCCTATCTTAGCGATGCGGTGT", k) {
		if _, ok := g.Lookup(kmer); !ok {
			t.Errorf("%s should survive", kmer)
		}
	}
	for _, kmer := range padena.Kmers("GCCTCGTATCT", k)[1:6] {
		if _, ok := g.Lookup(kmer); ok {
			t.Errorf("%s should have been removed", kmer)
		}
	}
	if g.NodeCount() != 23 {
		t.Fatalf("Expected 23 nodes left, got %d", g.NodeCount())
	}

	if removed := purger.Purge(g); removed != 0 {
		t.Fatalf("Second purge removed %d", removed)
	}
}

func TestRedundantPathsPurgerThreshold(t *testing.T) {
	g := buildGraph(t, redundantReads(), 5)
	purger := padena.RedundantPathsPurger{Threshold: 0}
	if removed := purger.Purge(g); removed != 0 || g.NodeCount() != 28 {
		t.Fatalf("Threshold 0 should not remove anything, removed %d", removed)
	}
}

func TestRedundantPathsPurgerTieBreak(t *testing.T) {
	// Both branches are seen once, the one spelled smaller from the first
	// source wins: ATACG (C to G) before ATAGG
	reads := makeReads("ATGCCTCCTATCTTAGCGATG", "ATGCCTCGTATCTTAGCGATG")
	for _, workers := range []int{1, 4} {
		g := buildGraph(t, reads, 5)
		purger := padena.RedundantPathsPurger{Threshold: 18, Workers: workers}
		if removed := purger.Purge(g); removed != 5 {
			t.Fatalf("Expected 5 nodes removed, got %d", removed)
		}
		if err := g.Validate(); err != nil {
			t.Fatal(err)
		}
		for _, kmer := range padena.Kmers("CCTCGTATC", 5) {
			if _, ok := g.Lookup(kmer); !ok {
				t.Errorf("%s should survive", kmer)
			}
		}
		for _, kmer := range padena.Kmers("CCTCCTATC", 5) {
			if _, ok := g.Lookup(kmer); ok {
				t.Errorf("%s should have been removed", kmer)
			}
		}
	}
}

func TestRedundantPathsPurgerCycle(t *testing.T) {
	// A circular sequence, TAAGA also leaves the cycle into a dead end
	builder := padena.KmerGraphBuilder{K: 5, Workers: 2}
	g, err := builder.Build(makeReads("ACGGTCTAAGACGGTCTAAGACGG", "CTAAGAAACCA"))
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 15 {
		t.Fatalf("Expected 15 nodes, got %d", g.NodeCount())
	}
	purger := padena.RedundantPathsPurger{Threshold: 18}
	if bubbles := purger.DetectErroneousNodes(g); len(bubbles) != 0 {
		t.Fatalf("A branch back to its source is not a bubble, got %v", bubbles)
	}
	if removed := purger.Purge(g); removed != 0 || g.NodeCount() != 15 {
		t.Fatalf("Expected nothing removed, got %d", removed)
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}

	builderContigs := padena.ContigBuilder{}
	contigs := builderContigs.Build(g)
	if len(contigs) != 2 {
		t.Fatalf("Expected the cycle and the dead end, got %d contigs", len(contigs))
	}
	nodes := 0
	for _, contig := range contigs {
		nodes += len(contig.Nodes)
	}
	if nodes != 15 {
		t.Fatalf("Contigs hold %d nodes, want 15", nodes)
	}
}

func TestRedundantPathsPurgerOverlappingBubbles(t *testing.T) {
	g := buildGraph(t, redundantReads(), 5)
	purger := padena.RedundantPathsPurger{Threshold: 18}
	bubbles := purger.DetectErroneousNodes(g)
	// The same bubble listed twice, the second copy touches marked nodes
	nodes, edges := purger.RemoveErroneousNodes(g, append(bubbles, bubbles...))
	if nodes != 5 || edges != 0 {
		t.Fatalf("Expected 5 nodes and 0 edges removed, got %d and %d", nodes, edges)
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
}
