/**
 * Filename: /Users/htang/code/padena/build.go
 * Path: /Users/htang/code/padena
 * Created Date: Saturday, January 27th 2018, 10:21:08 pm
 * Author: htang
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena

import (
	"fmt"
	"io"

	"github.com/shenwei356/xopen"
)

// OOLine describes a simple contig entry in a scaffold
type OOLine struct {
	id           string
	componentID  string
	componentBeg int
	componentEnd int
	strand       byte
}

// OO describes the scaffolds and contains an array of OOLine
type OO struct {
	entries []OOLine
}

// Add instantiates a new OOLine object and add to the array in OO
func (r *OO) Add(scaffold, ctg string, beg, end int, strand byte) {
	r.entries = append(r.entries, OOLine{scaffold, ctg, beg, end, strand})
}

// NewOO lays out the contigs of every scaffold. Contigs after the first one
// start past the K-1 bases they share with the previous contig.
func NewOO(cg *ContigGraph, scaffolds []Scaffold) *OO {
	oo := new(OO)
	for _, scaffold := range scaffolds {
		for i, step := range scaffold.Path {
			contig := cg.Contigs[step.Contig]
			beg, end := 1, contig.Len()
			strand := byte('+')
			if step.Reverse {
				strand = '-'
			}
			if i > 0 {
				// Trimmed bases sit at the start of the oriented contig
				if step.Reverse {
					end -= cg.K - 1
				} else {
					beg += cg.K - 1
				}
			}
			oo.Add(scaffold.Name, contig.Name, beg, end, strand)
		}
	}
	return oo
}

// WriteAGP converts the simplistic OOLine into AGP format
func (r *OO) WriteAGP(w io.Writer) int {
	prevObject := ""
	objectBeg := 1
	objectEnd := 1
	partNumber := 0
	components := 0

	for _, line := range r.entries {
		if line.id != prevObject {
			prevObject = line.id
			objectBeg = 1
			partNumber = 0
		}
		size := line.componentEnd - line.componentBeg + 1
		objectEnd = objectBeg + size - 1
		partNumber++
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%c\t%s\t%d\t%d\t%c\n",
			line.id, objectBeg, objectEnd, partNumber,
			'W', line.componentID, line.componentBeg, line.componentEnd, line.strand)
		objectBeg += size
		components++
	}
	return components
}

// WriteAGPFile writes the AGP of the scaffolds to a file
func WriteAGPFile(filename string, cg *ContigGraph, scaffolds []Scaffold) error {
	w, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}
	components := NewOO(cg, scaffolds).WriteAGP(w)
	log.Noticef("A total of %d tigs written to `%s`", components, filename)
	return w.Close()
}
