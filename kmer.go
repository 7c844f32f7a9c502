/*
 *  kmer.go
 *  padena
 *
 *  Created by Haibao Tang on 03/02/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
	"strings"
)

// Read is a single input sequence with its display identifier
type Read struct {
	ID  string
	Seq []byte
}

// Kmer is a 2-bit packed kmer, the first base sits in the highest bits
type Kmer uint64

// KmerOccurrence is one kmer seen at a position of a read. Forward is true
// when the read carries the canonical strand of the kmer.
type KmerOccurrence struct {
	Kmer     Kmer
	Position int
	Forward  bool
}

// KmerBuilder decomposes reads into canonical kmers
type KmerBuilder struct {
	K int
}

var baseCode = [256]int8{}
var codeBase = [4]byte{'A', 'C', 'G', 'T'}

func init() {
	for i := range baseCode {
		baseCode[i] = -1
	}
	for i, c := range codeBase {
		baseCode[c] = int8(i)
		baseCode[c+'a'-'A'] = int8(i)
	}
}

// kmerMask returns the bit mask covering k bases
func kmerMask(k int) Kmer {
	return Kmer(1)<<(2*uint(k)) - 1
}

// PackKmer packs the sequence into a Kmer, returns false on non-ACGT symbols
func PackKmer(s []byte) (Kmer, bool) {
	var x Kmer
	for _, c := range s {
		code := baseCode[c]
		if code < 0 {
			return 0, false
		}
		x = x<<2 | Kmer(code)
	}
	return x, true
}

// ReverseComplement returns the reverse complement of a packed kmer
func (x Kmer) ReverseComplement(k int) Kmer {
	var y Kmer
	for i := 0; i < k; i++ {
		y = y<<2 | (3 - x&3)
		x >>= 2
	}
	return y
}

// Canonical returns the smaller of the kmer and its reverse complement, and
// whether the kmer was already canonical
func (x Kmer) Canonical(k int) (Kmer, bool) {
	rc := x.ReverseComplement(k)
	if rc < x {
		return rc, false
	}
	return x, true
}

// String unpacks the kmer into ACGT
func (x Kmer) String(k int) string {
	b := make([]byte, k)
	for i := k - 1; i >= 0; i-- {
		b[i] = codeBase[x&3]
		x >>= 2
	}
	return string(b)
}

// first returns the code of the first base
func (x Kmer) first(k int) int {
	return int(x >> (2 * uint(k-1)))
}

// last returns the code of the last base
func (x Kmer) last() int {
	return int(x & 3)
}

// ReverseComplement returns the reverse complement of an ACGT sequence
func ReverseComplement(s []byte) []byte {
	rc := make([]byte, len(s))
	for i, c := range s {
		var r byte
		switch c {
		case 'A', 'a':
			r = 'T'
		case 'C', 'c':
			r = 'G'
		case 'G', 'g':
			r = 'C'
		case 'T', 't':
			r = 'A'
		default:
			r = 'N'
		}
		rc[len(s)-1-i] = r
	}
	return rc
}

// ValidateRead checks that a read only carries ACGT symbols
func ValidateRead(read Read) error {
	for i, c := range read.Seq {
		if baseCode[c] < 0 {
			return fmt.Errorf("%w: read `%s` has symbol %q at position %d",
				ErrInvalidSequence, read.ID, c, i)
		}
	}
	return nil
}

// Build returns the ordered kmer occurrences of a read. Reads shorter than K
// yield no kmers.
func (r *KmerBuilder) Build(read Read) ([]KmerOccurrence, error) {
	k := r.K
	if k <= 0 || k > MaxKmerLength {
		return nil, fmt.Errorf("%w: kmer length %d not in [1, %d]", ErrInvalidInput, k, MaxKmerLength)
	}
	if err := ValidateRead(read); err != nil {
		return nil, err
	}
	n := len(read.Seq) - k + 1
	if n <= 0 {
		return nil, nil
	}
	mask := kmerMask(k)
	occurrences := make([]KmerOccurrence, 0, n)
	x, _ := PackKmer(read.Seq[:k])
	for i := 0; i < n; i++ {
		if i > 0 {
			x = (x<<2 | Kmer(baseCode[read.Seq[i+k-1]])) & mask
		}
		canonical, forward := x.Canonical(k)
		occurrences = append(occurrences, KmerOccurrence{canonical, i, forward})
	}
	return occurrences, nil
}

// Kmers returns the kmer strings (in read orientation) of a sequence
func Kmers(s string, k int) []string {
	var kmers []string
	s = strings.ToUpper(s)
	for i := 0; i+k <= len(s); i++ {
		kmers = append(kmers, s[i:i+k])
	}
	return kmers
}
