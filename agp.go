/**
 * Filename: /Users/bao/code/padena/agp.go
 * Path: /Users/bao/code/padena
 * Created Date: Monday, February 26th 2018, 8:30:12 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// AGPLine is a line in the AGP file
type AGPLine struct {
	object        string
	objectBeg     int
	objectEnd     int
	partNumber    int
	componentType byte
	isGap         bool
	strand        byte
	// As a gap
	gapLength int
	// As a sequence chunk
	componentID  string
	componentBeg int
	componentEnd int
}

// AGP is a collection of AGPLines
type AGP struct {
	lines []AGPLine
}

// NewAGP parses an AGP file
func NewAGP(agpfile string) (*AGP, error) {
	fh, err := os.Open(agpfile)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	log.Noticef("Parse agpfile `%s`", agpfile)
	return ParseAGP(fh)
}

// ParseAGP reads the AGP lines, comments are skipped
func ParseAGP(rd io.Reader) (*AGP, error) {
	p := new(AGP)
	scanner := bufio.NewScanner(rd)
	for lineno := 1; scanner.Scan(); lineno++ {
		row := strings.TrimSpace(scanner.Text())
		if row == "" || row[0] == '#' {
			continue
		}
		words := strings.Split(row, "\t")
		if len(words) < 8 || words[4] == "" {
			return nil, fmt.Errorf("%w: AGP line %d has %d columns", ErrInvalidInput, lineno, len(words))
		}
		var line AGPLine
		var errs [5]error
		line.object = words[0]
		line.objectBeg, errs[0] = strconv.Atoi(words[1])
		line.objectEnd, errs[1] = strconv.Atoi(words[2])
		line.partNumber, errs[2] = strconv.Atoi(words[3])
		line.componentType = words[4][0]
		switch line.componentType {
		case 'N', 'U':
			line.isGap = true
			line.gapLength, errs[3] = strconv.Atoi(words[5])
		default:
			if len(words) < 9 || words[8] == "" {
				return nil, fmt.Errorf("%w: AGP line %d has no orientation", ErrInvalidInput, lineno)
			}
			line.componentID = words[5]
			line.componentBeg, errs[3] = strconv.Atoi(words[6])
			line.componentEnd, errs[4] = strconv.Atoi(words[7])
			line.strand = words[8][0]
		}
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("%w: AGP line %d: %v", ErrInvalidInput, lineno, err)
			}
		}
		p.lines = append(p.lines, line)
	}
	return p, scanner.Err()
}

// Build spells the objects of the AGP with the contig sequences. Gaps are
// filled with N.
func (r *AGP) Build(contigs []Contig) ([]Scaffold, error) {
	contigToIdx := make(map[string]int, len(contigs))
	for i, contig := range contigs {
		contigToIdx[contig.Name] = i
	}
	var scaffolds []Scaffold
	var sb strings.Builder
	prevObject := ""
	flush := func() {
		if prevObject != "" {
			scaffolds[len(scaffolds)-1].Sequence = sb.String()
		}
		sb.Reset()
	}
	for _, line := range r.lines {
		if line.object != prevObject {
			flush()
			prevObject = line.object
			scaffolds = append(scaffolds, Scaffold{Name: line.object})
		}
		if line.isGap {
			sb.WriteString(strings.Repeat("N", line.gapLength))
			continue
		}
		ci, ok := contigToIdx[line.componentID]
		if !ok {
			return nil, fmt.Errorf("%w: component `%s` not found", ErrInvalidInput, line.componentID)
		}
		s := contigs[ci].Sequence
		if line.componentBeg < 1 || line.componentEnd > len(s) || line.componentBeg > line.componentEnd {
			return nil, fmt.Errorf("%w: component `%s` range %d-%d out of 1-%d", ErrInvalidInput,
				line.componentID, line.componentBeg, line.componentEnd, len(s))
		}
		chunk := []byte(s[line.componentBeg-1 : line.componentEnd])
		reverse := line.strand == '-'
		if reverse {
			chunk = ReverseComplement(chunk)
		}
		sb.Write(chunk)
		last := &scaffolds[len(scaffolds)-1]
		last.Path = append(last.Path, PathStep{ci, reverse})
	}
	flush()
	return scaffolds, nil
}

// BuildFasta builds target FASTA based on info from agpfile
func BuildFasta(agpfile, contigsfile, fastafile string) error {
	agp, err := NewAGP(agpfile)
	if err != nil {
		return err
	}
	contigs, err := ReadContigs(contigsfile)
	if err != nil {
		return err
	}
	scaffolds, err := agp.Build(contigs)
	if err != nil {
		return err
	}
	return WriteScaffolds(fastafile, scaffolds)
}
