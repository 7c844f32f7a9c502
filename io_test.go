/*
 *  io_test.go
 *  padena
 *
 *  Created by Haibao Tang on 03/27/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/padena"
)

func TestWriteContigs(t *testing.T) {
	long := strings.Repeat("ACGTTGCA", 16) + "AC"
	contigs := []padena.Contig{
		{Name: "contig_1", Sequence: long, Coverage: 2.5},
		{Name: "contig_2", Sequence: "CATTACC", Coverage: 1},
	}
	for _, name := range []string{"contigs.fasta", "contigs.fasta.gz"} {
		filename := filepath.Join(t.TempDir(), name)
		require.NoError(t, padena.WriteContigs(filename, contigs))
		loaded, err := padena.ReadContigs(filename)
		require.NoError(t, err)
		require.Len(t, loaded, 2)
		for i := range contigs {
			assert.Equal(t, contigs[i].Name, loaded[i].Name)
			assert.Equal(t, contigs[i].Sequence, loaded[i].Sequence)
		}
	}

	filename := filepath.Join(t.TempDir(), "contigs.fasta")
	require.NoError(t, padena.WriteContigs(filename, contigs[:1]))
	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, ">contig_1 length=130 coverage=2.5", lines[0])
	assert.Len(t, lines[1], padena.FastaLineWidth)
	assert.Len(t, lines[3], 10)
}

func TestWriteScaffolds(t *testing.T) {
	scaffolds := []padena.Scaffold{{
		Name:     "scaffold_1",
		Sequence: "CATTACCTTGAGGCA",
		Path:     padena.ScaffoldPath{{Contig: 0}, {Contig: 1}, {Contig: 2, Reverse: true}},
	}}
	filename := filepath.Join(t.TempDir(), "scaffolds.fasta")
	require.NoError(t, padena.WriteScaffolds(filename, scaffolds))
	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, ">scaffold_1 path=0+,1+,2-\nCATTACCTTGAGGCA\n", string(content))
}

func TestReadSequences(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "reads.fastq")
	fastq := "@r1.x1:2K first mate\nACGTACGT\n+\nIIIIIIII\n@r1.y1:2K\nTTGCA\n+\nIIIII\n"
	require.NoError(t, os.WriteFile(filename, []byte(fastq), 0644))
	reads, err := padena.ReadSequences(filename)
	require.NoError(t, err)
	require.Len(t, reads, 2)
	assert.Equal(t, "r1.x1:2K", reads[0].ID)
	assert.Equal(t, "ACGTACGT", string(reads[0].Seq))
	assert.Equal(t, "r1.y1:2K", reads[1].ID)

	_, err = padena.ReadSequences(filepath.Join(t.TempDir(), "missing.fasta"))
	assert.ErrorIs(t, err, padena.ErrInvalidInput)
}
