/**
 * Filename: /Users/bao/code/padena/base.go
 * Path: /Users/bao/code/padena
 * Created Date: Tuesday, January 2nd 2018, 8:07:22 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"runtime"
	"strings"

	logging "github.com/op/go-logging"
)

const (
	// Version is the current version of PaDeNA
	Version = "0.3.1"
	// MaxKmerLength is the largest k that fits in a packed uint64 kmer
	MaxKmerLength = 31
	// NumShards is the number of lock shards used while building the graph
	NumShards = 256
	// DefaultScaffoldDepth is the default BFS depth for scaffold tracing
	DefaultScaffoldDepth = 10
	// DefaultRedundancy is the default number of mate pairs supporting a link
	DefaultRedundancy = 2
	// DefaultTolerance is the number of standard deviations a distance may deviate
	DefaultTolerance = 3.0
	// BundleSigma is the window (in sd) for bundling mate pair distances
	BundleSigma = 3.0
	// ChunkSize is the number of items each worker takes per batch
	ChunkSize = 1024
	// FastaLineWidth is the width of the sequence lines in FASTA output
	FastaLineWidth = 60
)

var (
	// ErrInvalidInput signals bad parameters or reads
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidSequence signals a symbol outside of ACGT in a read
	ErrInvalidSequence = errors.New("invalid sequence")
	// ErrUnknownLibrary signals a lookup of a library not in the registry
	ErrUnknownLibrary = errors.New("unknown library")
	// ErrInconsistentOrientation signals a scaffold path whose flags disagree with the graph
	ErrInconsistentOrientation = errors.New("inconsistent orientation")
	// ErrInconsistentGraph signals a broken back-reference between two nodes
	ErrInconsistentGraph = errors.New("inconsistent graph state")
)

var log = logging.MustGetLogger("padena")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// Make2DSlice allocates a 2D matrix with shape (m, n)
func Make2DSlice(m, n int) [][]int {
	P := make([][]int, m)
	for i := 0; i < m; i++ {
		P[i] = make([]int, n)
	}
	return P
}

// Percentage prints a human readable message of the percentage
func Percentage(a, b int) string {
	if b == 0 {
		return fmt.Sprintf("%d of %d (0.0 %%)", a, b)
	}
	return fmt.Sprintf("%d of %d (%.1f %%)", a, b, float64(a)*100./float64(b))
}

// numWorkers returns the effective number of goroutines
func numWorkers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// EstimateKmerLength picks a kmer length from the read lengths when none is
// given. The value sits halfway between half of the longest read and the
// shortest read.
func EstimateKmerLength(reads []Read) int {
	if len(reads) == 0 {
		return 0
	}
	minLen, maxLen := math.MaxInt32, 0
	for _, read := range reads {
		n := len(read.Seq)
		if n < minLen {
			minLen = n
		}
		if n > maxLen {
			maxLen = n
		}
	}
	lo := float64(maxLen) / 2
	hi := float64(minLen)
	var k int
	if lo < hi {
		k = int(math.Ceil((lo + hi) / 2))
	} else {
		k = int(math.Floor(hi))
	}
	if k > MaxKmerLength {
		k = MaxKmerLength
	}
	return k
}
