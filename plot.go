/*
 * Filename: /Users/bao/code/padena/plot.go
 * Path: /Users/bao/code/padena
 * Created Date: Saturday, July 7th 2018, 1:33:37 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"
	"github.com/shenwei356/xopen"
)

// Plotter exports the contig graph and the scaffold links for plotting
type Plotter struct {
	Prefix string
}

// Run writes `prefix.links.npy` and `prefix.dot`
func (r *Plotter) Run(cg *ContigGraph, links []ContigLink) error {
	npyfile := r.Prefix + ".links.npy"
	if err := WriteNpy(npyfile, LinkMatrix(len(cg.Contigs), links)); err != nil {
		return err
	}
	log.Noticef("Link matrix written to `%s`", npyfile)

	dotfile := r.Prefix + ".dot"
	w, err := xopen.Wopen(dotfile)
	if err != nil {
		return err
	}
	dot, err := ContigGraphDot(cg, links)
	if err != nil {
		_ = w.Close()
		return err
	}
	if _, err := w.WriteString(dot); err != nil {
		_ = w.Close()
		return err
	}
	log.Noticef("Contig graph written to `%s`", dotfile)
	return w.Close()
}

// LinkMatrix yields a pairwise matrix where each cell contains the
// strandedness times the number of mate pairs supporting the link between
// i-th and j-th contig
func LinkMatrix(n int, links []ContigLink) *mat64.SymDense {
	P := mat64.NewSymDense(max(n, 1), nil)
	for _, link := range links {
		score := float64(link.Support)
		if link.AReversed != link.BReversed {
			score = -score
		}
		P.SetSym(link.A, link.B, P.At(link.A, link.B)+score)
	}
	return P
}

// WriteNpy serializes a matrix to the numpy format
func WriteNpy(filename string, m mat64.Matrix) error {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data = append(data, m.At(i, j))
		}
	}
	w, err := gonpy.NewFileWriter(filename)
	if err != nil {
		return err
	}
	w.Shape = []int{rows, cols}
	return w.WriteFloat64(data)
}

// WriteCoverageHistogram writes the node counts per kmer occurrence count as
// a 1 x n matrix
func WriteCoverageHistogram(filename string, hist []float64) error {
	if len(hist) == 0 {
		hist = []float64{0}
	}
	if err := WriteNpy(filename, mat64.NewDense(1, len(hist), hist)); err != nil {
		return err
	}
	log.Noticef("Coverage histogram written to `%s`", filename)
	return nil
}

// ContigGraphDot renders the overlaps between contigs as solid edges and
// the scaffold links as dashed edges labelled with the distance
func ContigGraphDot(cg *ContigGraph, links []ContigLink) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	for i, contig := range cg.Contigs {
		attr := map[string]string{
			"label": fmt.Sprintf(`"%s\n%dbp"`, contig.Name, contig.Len()),
		}
		if err := g.AddNode("G", strconv.Itoa(i), attr); err != nil {
			return "", err
		}
	}
	for i, edges := range cg.Right {
		for _, e := range edges {
			attr := map[string]string{}
			if !e.SameOrientation {
				attr["arrowhead"] = "inv"
			}
			if err := g.AddEdge(strconv.Itoa(i), strconv.Itoa(e.To), true, attr); err != nil {
				return "", err
			}
		}
	}
	for _, link := range links {
		attr := map[string]string{
			"style": "dashed",
			"label": fmt.Sprintf(`"%s %.0f"`, ScaffoldPath{link.From(), link.To()}, link.Distance),
		}
		if err := g.AddEdge(strconv.Itoa(link.A), strconv.Itoa(link.B), true, attr); err != nil {
			return "", err
		}
	}
	return g.String(), nil
}
