/*
 *  io.go
 *  padena
 *
 *  Created by Haibao Tang on 03/27/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

// mustExist checks if a file exists before parsing
func mustExist(filename string) error {
	if _, err := os.Stat(filename); err != nil {
		return fmt.Errorf("%w: cannot find `%s`", ErrInvalidInput, filename)
	}
	return nil
}

// ReadSequences parses a FASTA or FASTQ file (plain or gzipped) into reads.
// The read id is the header up to the first space.
func ReadSequences(filename string) ([]Read, error) {
	if err := mustExist(filename); err != nil {
		return nil, err
	}
	log.Noticef("Parse sequences `%s`", filename)
	reader, err := fastx.NewDefaultReader(filename)
	if err != nil {
		return nil, err
	}
	seq.ValidateSeq = false // This flag makes parsing FASTA much faster

	var reads []Read
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(string(rec.Name))
		id := ""
		if len(fields) > 0 {
			id = fields[0]
		}
		s := make([]byte, len(rec.Seq.Seq))
		copy(s, rec.Seq.Seq)
		reads = append(reads, Read{ID: id, Seq: s})
	}
	log.Noticef("Loaded %d sequences", len(reads))
	return reads, nil
}

// ReadContigs parses a FASTA file of contigs
func ReadContigs(filename string) ([]Contig, error) {
	reads, err := ReadSequences(filename)
	if err != nil {
		return nil, err
	}
	contigs := make([]Contig, len(reads))
	for i, read := range reads {
		contigs[i] = Contig{Name: read.ID, Sequence: strings.ToUpper(string(read.Seq))}
	}
	return contigs, nil
}

// writeFastaRecord writes one FASTA record wrapped at FastaLineWidth
func writeFastaRecord(w io.Writer, name, s string) {
	fmt.Fprintf(w, ">%s\n", name)
	for i := 0; i < len(s); i += FastaLineWidth {
		end := min(i+FastaLineWidth, len(s))
		fmt.Fprintln(w, s[i:end])
	}
}

// WriteContigs writes contigs to FASTA, gzipped when the name ends in .gz
func WriteContigs(filename string, contigs []Contig) error {
	w, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}
	for _, contig := range contigs {
		writeFastaRecord(w, fmt.Sprintf("%s length=%d coverage=%.1f",
			contig.Name, contig.Len(), contig.Coverage), contig.Sequence)
	}
	log.Noticef("A total of %d contigs written to `%s`", len(contigs), filename)
	return w.Close()
}

// WriteScaffolds writes scaffolds to FASTA, gzipped when the name ends in .gz
func WriteScaffolds(filename string, scaffolds []Scaffold) error {
	w, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}
	for _, scaffold := range scaffolds {
		writeFastaRecord(w, fmt.Sprintf("%s path=%s", scaffold.Name,
			strings.ReplaceAll(scaffold.Path.String(), " ", ",")), scaffold.Sequence)
	}
	log.Noticef("A total of %d scaffolds written to `%s`", len(scaffolds), filename)
	return w.Close()
}
