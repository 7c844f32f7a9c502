/*
 * Filename: /Users/bao/code/padena/graph.go
 * Path: /Users/bao/code/padena
 * Created Date: Monday, June 4th 2018, 11:37:27 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena

import (
	"fmt"
	"math/bits"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Extension slots: 0-3 are left extensions by A, C, G, T and 4-7 are right
// extensions by A, C, G, T, always relative to the canonical kmer. On a
// palindromic kmer slot s and 7-s reach the same neighbor, both are kept set.
const numSlots = 8

const (
	leftMask  = uint8(0x0f)
	rightMask = uint8(0xf0)
)

// Node is one canonical kmer in the de Bruijn graph
type Node struct {
	Kmer    Kmer
	Count   int
	ext     uint8 // slot is occupied
	same    uint8 // neighbor in slot is read in the same orientation
	nbr     [numSlots]int32
	marked  bool
	deleted bool
}

// Extension is a neighbor seen from one side of a node
type Extension struct {
	Node            int
	SameOrientation bool
}

// DeBruijnGraph is an arena of nodes sorted by canonical kmer. Node ids are
// stable across removals.
type DeBruijnGraph struct {
	K        int
	nodes    []Node
	index    map[Kmer]int32
	live     int
	Rejected []error // reads skipped because of invalid symbols
}

// KmerGraphBuilder aggregates the kmers of all reads into a DeBruijnGraph
type KmerGraphBuilder struct {
	K                int
	ImpliedEdges     bool // also link all nodes that overlap by K-1
	SkipInvalidReads bool // otherwise an invalid read aborts the build
	Workers          int
}

type buildNode struct {
	kmer  Kmer
	count int
	ext   uint8
}

type kmerShard struct {
	sync.Mutex
	index map[Kmer]int
	nodes []buildNode
}

// shardOf hashes the canonical kmer into a lock shard
func shardOf(x Kmer) int {
	return int((uint64(x) * 0x9E3779B97F4A7C15) >> 56)
}

// parallelFor splits [0, n) into chunks processed by a bounded set of goroutines
func parallelFor(n, workers int, fn func(lo, hi int) error) error {
	var g errgroup.Group
	g.SetLimit(numWorkers(workers))
	for lo := 0; lo < n; lo += ChunkSize {
		lo, hi := lo, lo+ChunkSize
		if hi > n {
			hi = n
		}
		g.Go(func() error { return fn(lo, hi) })
	}
	return g.Wait()
}

// Build constructs the graph from the reads, processing batches of reads in
// parallel
func (r *KmerGraphBuilder) Build(reads []Read) (*DeBruijnGraph, error) {
	k := r.K
	if k <= 0 || k > MaxKmerLength {
		return nil, fmt.Errorf("%w: kmer length %d not in [1, %d]", ErrInvalidInput, k, MaxKmerLength)
	}
	log.Noticef("Build de Bruijn graph from %d reads (k=%d)", len(reads), k)

	shards := make([]kmerShard, NumShards)
	for i := range shards {
		shards[i].index = map[Kmer]int{}
	}
	var rejectedMu sync.Mutex
	var rejected []error
	kb := KmerBuilder{K: k}

	err := parallelFor(len(reads), r.Workers, func(lo, hi int) error {
		for _, read := range reads[lo:hi] {
			occurrences, err := kb.Build(read)
			if err != nil {
				if !r.SkipInvalidReads {
					return err
				}
				log.Warningf("Skip read: %s", err)
				rejectedMu.Lock()
				rejected = append(rejected, err)
				rejectedMu.Unlock()
				continue
			}
			for _, o := range occurrences {
				s := &shards[shardOf(o.Kmer)]
				s.Lock()
				if i, ok := s.index[o.Kmer]; ok {
					s.nodes[i].count++
				} else {
					s.index[o.Kmer] = len(s.nodes)
					s.nodes = append(s.nodes, buildNode{kmer: o.Kmer, count: 1})
				}
				s.Unlock()
			}
			for i := 0; i+1 < len(occurrences); i++ {
				x, y := occurrences[i], occurrences[i+1]
				next := int(baseCode[read.Seq[i+k]])
				prev := int(baseCode[read.Seq[i]])
				xs, ys := 4+next, prev
				if !x.Forward {
					xs = 3 - next
				}
				if !y.Forward {
					ys = 4 + 3 - prev
				}
				addObservedEdge(shards, k, x.Kmer, xs, y.Kmer, ys)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g := freeze(k, shards)
	g.Rejected = rejected
	if r.ImpliedEdges {
		g.generateImpliedEdges(r.Workers)
	}
	if err := g.resolveNeighbors(r.Workers); err != nil {
		return nil, err
	}
	log.Noticef("Graph contains %d nodes and %d extensions (%d reads skipped)",
		g.NodeCount(), g.EdgeCount(), len(rejected))
	return g, nil
}

// addObservedEdge sets both slots of an edge while holding both shard locks
func addObservedEdge(shards []kmerShard, k int, x Kmer, xs int, y Kmer, ys int) {
	a, b := shardOf(x), shardOf(y)
	if a > b {
		a, b = b, a
	}
	shards[a].Lock()
	if b != a {
		shards[b].Lock()
	}
	sx, sy := &shards[shardOf(x)], &shards[shardOf(y)]
	sx.nodes[sx.index[x]].ext |= slotBits(x, k, xs)
	sy.nodes[sy.index[y]].ext |= slotBits(y, k, ys)
	if b != a {
		shards[b].Unlock()
	}
	shards[a].Unlock()
}

// freeze collects the shards into a sorted arena
func freeze(k int, shards []kmerShard) *DeBruijnGraph {
	total := 0
	for i := range shards {
		total += len(shards[i].nodes)
	}
	all := make([]buildNode, 0, total)
	for i := range shards {
		all = append(all, shards[i].nodes...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].kmer < all[j].kmer })

	g := &DeBruijnGraph{
		K:     k,
		nodes: make([]Node, len(all)),
		index: make(map[Kmer]int32, len(all)),
		live:  len(all),
	}
	for i, b := range all {
		g.nodes[i] = Node{Kmer: b.kmer, Count: b.count, ext: b.ext}
		g.index[b.kmer] = int32(i)
	}
	return g
}

// neighborKmer returns the canonical kmer reached through a slot and whether
// it is read in the same orientation
func (g *DeBruijnGraph) neighborKmer(x Kmer, slot int) (Kmer, bool) {
	k := g.K
	var z Kmer
	if slot < 4 {
		z = Kmer(slot)<<(2*uint(k-1)) | x>>2
	} else {
		z = (x<<2 | Kmer(slot-4)) & kmerMask(k)
	}
	return z.Canonical(k)
}

// mirrorSlot returns the slot that spells the same edge on the other strand
func mirrorSlot(slot int) int {
	return numSlots - 1 - slot
}

// isPalindrome checks if the kmer equals its own reverse complement
func (x Kmer) isPalindrome(k int) bool {
	return x == x.ReverseComplement(k)
}

// slotBits returns the bits of a slot, with its mirror on a palindromic kmer
func slotBits(x Kmer, k, slot int) uint8 {
	bit := uint8(1) << uint(slot)
	if x.isPalindrome(k) {
		bit |= 1 << uint(mirrorSlot(slot))
	}
	return bit
}

// backSlot returns the slot on the neighbor that points back to x. Both
// mirror slots of a palindromic x give the same answer.
func backSlot(x Kmer, k, slot int, same bool) int {
	if slot >= 4 {
		if same {
			return x.first(k)
		}
		return 4 + 3 - x.first(k)
	}
	if same {
		return 4 + x.last()
	}
	return 3 - x.last()
}

// generateImpliedEdges links every pair of nodes that overlap by K-1. Each
// node only writes its own slots, the relation is symmetric.
func (g *DeBruijnGraph) generateImpliedEdges(workers int) {
	_ = parallelFor(len(g.nodes), workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			node := &g.nodes[i]
			for slot := 0; slot < numSlots; slot++ {
				z, _ := g.neighborKmer(node.Kmer, slot)
				if _, ok := g.index[z]; ok {
					node.ext |= 1 << uint(slot)
				}
			}
		}
		return nil
	})
}

// resolveNeighbors fills neighbor ids and orientation bits for all slots
func (g *DeBruijnGraph) resolveNeighbors(workers int) error {
	return parallelFor(len(g.nodes), workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			node := &g.nodes[i]
			for slot := 0; slot < numSlots; slot++ {
				if node.ext&(1<<uint(slot)) == 0 {
					continue
				}
				z, same := g.neighborKmer(node.Kmer, slot)
				j, ok := g.index[z]
				if !ok {
					return fmt.Errorf("%w: %s has no neighbor %s",
						ErrInconsistentGraph, node.Kmer.String(g.K), z.String(g.K))
				}
				node.nbr[slot] = j
				if same {
					node.same |= 1 << uint(slot)
				}
			}
		}
		return nil
	})
}

// NodeCount returns the number of live nodes
func (g *DeBruijnGraph) NodeCount() int {
	return g.live
}

// EdgeCount returns the sum of the extension counts over all live nodes, so
// every edge between two distinct nodes is counted from both ends
func (g *DeBruijnGraph) EdgeCount() int {
	total := 0
	for i := range g.nodes {
		if !g.nodes[i].deleted {
			total += bits.OnesCount8(g.nodes[i].ext)
		}
	}
	return total
}

// Nodes returns the ids of all live nodes in kmer order
func (g *DeBruijnGraph) Nodes() []int {
	ids := make([]int, 0, g.live)
	for i := range g.nodes {
		if !g.nodes[i].deleted {
			ids = append(ids, i)
		}
	}
	return ids
}

// Node returns the node with the given id
func (g *DeBruijnGraph) Node(id int) *Node {
	return &g.nodes[id]
}

// Size returns the size of the arena including deleted nodes
func (g *DeBruijnGraph) Size() int {
	return len(g.nodes)
}

// Contains checks if the id points to a live node
func (g *DeBruijnGraph) Contains(id int) bool {
	return id >= 0 && id < len(g.nodes) && !g.nodes[id].deleted
}

// Lookup finds the node of a kmer given in either orientation
func (g *DeBruijnGraph) Lookup(s string) (int, bool) {
	if len(s) != g.K {
		return -1, false
	}
	x, ok := PackKmer([]byte(s))
	if !ok {
		return -1, false
	}
	x, _ = x.Canonical(g.K)
	id, ok := g.index[x]
	if !ok || g.nodes[id].deleted {
		return -1, false
	}
	return int(id), true
}

// Sequence returns the canonical kmer of a node
func (g *DeBruijnGraph) Sequence(id int) string {
	return g.nodes[id].Kmer.String(g.K)
}

// Extensions lists the neighbors on one side of a node
func (g *DeBruijnGraph) Extensions(id int, right bool) []Extension {
	node := &g.nodes[id]
	lo := 0
	if right {
		lo = 4
	}
	var exts []Extension
	for slot := lo; slot < lo+4; slot++ {
		if node.ext&(1<<uint(slot)) != 0 {
			exts = append(exts, Extension{int(node.nbr[slot]), node.same&(1<<uint(slot)) != 0})
		}
	}
	return exts
}

// LeftCount returns the number of left extensions
func (g *DeBruijnGraph) LeftCount(id int) int {
	return bits.OnesCount8(g.nodes[id].ext & leftMask)
}

// RightCount returns the number of right extensions
func (g *DeBruijnGraph) RightCount(id int) int {
	return bits.OnesCount8(g.nodes[id].ext & rightMask)
}

// ExtensionsCount returns the number of extensions on both sides
func (g *DeBruijnGraph) ExtensionsCount(id int) int {
	return bits.OnesCount8(g.nodes[id].ext)
}

// IsPalindrome checks if the kmer equals its own reverse complement
func (g *DeBruijnGraph) IsPalindrome(id int) bool {
	return g.nodes[id].Kmer.isPalindrome(g.K)
}

// removeEdge clears a slot and its back-reference on the neighbor, mirror
// slots of palindromic kmers go along
func (g *DeBruijnGraph) removeEdge(id, slot int) {
	node := &g.nodes[id]
	if node.ext&(1<<uint(slot)) == 0 {
		return
	}
	same := node.same&(1<<uint(slot)) != 0
	j := int(node.nbr[slot])
	back := backSlot(node.Kmer, g.K, slot, same)
	other := &g.nodes[j]
	if other.ext&(1<<uint(back)) == 0 || int(other.nbr[back]) != id {
		panic(fmt.Sprintf("%s: %s -> %s has no back-reference", ErrInconsistentGraph,
			node.Kmer.String(g.K), other.Kmer.String(g.K)))
	}
	mask := slotBits(node.Kmer, g.K, slot)
	backMask := slotBits(other.Kmer, g.K, back)
	node.ext &^= mask
	node.same &^= mask
	other.ext &^= backMask
	other.same &^= backMask
}

// removeNode detaches a node from all its neighbors and deletes it
func (g *DeBruijnGraph) removeNode(id int) {
	node := &g.nodes[id]
	if node.deleted {
		return
	}
	for slot := 0; slot < numSlots; slot++ {
		g.removeEdge(id, slot)
	}
	node.deleted = true
	g.live--
}

// RemoveNodes deletes a set of nodes, skipping those already deleted
func (g *DeBruijnGraph) RemoveNodes(ids []int) int {
	removed := 0
	for _, id := range ids {
		if !g.nodes[id].deleted {
			g.removeNode(id)
			removed++
		}
	}
	return removed
}

// clearMarks resets the transient flags used by traversals
func (g *DeBruijnGraph) clearMarks() {
	for i := range g.nodes {
		g.nodes[i].marked = false
	}
}

// Validate checks that every edge has a consistent back-reference and that
// palindromic kmers carry both mirror slots
func (g *DeBruijnGraph) Validate() error {
	for id := range g.nodes {
		node := &g.nodes[id]
		if node.deleted {
			if node.ext != 0 {
				return fmt.Errorf("%w: deleted node %s keeps extensions",
					ErrInconsistentGraph, node.Kmer.String(g.K))
			}
			continue
		}
		for slot := 0; slot < numSlots; slot++ {
			bit := uint8(1) << uint(slot)
			if node.ext&bit == 0 {
				continue
			}
			if mirror := slotBits(node.Kmer, g.K, slot); node.ext&mirror != mirror {
				return fmt.Errorf("%w: palindrome %s misses a mirror slot",
					ErrInconsistentGraph, node.Kmer.String(g.K))
			}
			j := int(node.nbr[slot])
			other := &g.nodes[j]
			back := backSlot(node.Kmer, g.K, slot, node.same&bit != 0)
			if other.deleted || other.ext&(1<<uint(back)) == 0 || int(other.nbr[back]) != id {
				return fmt.Errorf("%w: %s -> %s is not symmetric", ErrInconsistentGraph,
					node.Kmer.String(g.K), other.Kmer.String(g.K))
			}
		}
	}
	return nil
}

// CoverageHistogram counts the nodes per kmer occurrence count, index i holds
// the number of nodes seen i times
func (g *DeBruijnGraph) CoverageHistogram() []float64 {
	maxCount := 0
	for i := range g.nodes {
		if !g.nodes[i].deleted && g.nodes[i].Count > maxCount {
			maxCount = g.nodes[i].Count
		}
	}
	hist := make([]float64, maxCount+1)
	for i := range g.nodes {
		if !g.nodes[i].deleted {
			hist[g.nodes[i].Count]++
		}
	}
	return hist
}
