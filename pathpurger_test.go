/*
 *  pathpurger_test.go
 *  padena
 *
 *  Created by Haibao Tang on 03/22/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena_test

import (
	"testing"

	"github.com/tanghaibao/padena"
)

func parsePath(t *testing.T, words ...string) padena.ScaffoldPath {
	t.Helper()
	path := make(padena.ScaffoldPath, len(words))
	for i, w := range words {
		contig := int(w[0] - '0')
		path[i] = padena.PathStep{Contig: contig, Reverse: w[1] == '-'}
	}
	return path
}

func TestPathPurger(t *testing.T) {
	tests := []struct {
		name  string
		paths []padena.ScaffoldPath
		want  []string
	}{
		{
			"reverse duplicate",
			[]padena.ScaffoldPath{parsePath(t, "0+", "1+", "2-"), parsePath(t, "2+", "1-", "0-")},
			[]string{"0+ 1+ 2-"},
		},
		{
			"contained",
			[]padena.ScaffoldPath{parsePath(t, "1+", "2-"), parsePath(t, "0+", "1+", "2-")},
			[]string{"0+ 1+ 2-"},
		},
		{
			"stitched",
			[]padena.ScaffoldPath{parsePath(t, "0+", "1+"), parsePath(t, "1+", "2-")},
			[]string{"0+ 1+ 2-"},
		},
		{
			"stitched through the other strand",
			[]padena.ScaffoldPath{parsePath(t, "0+", "1+"), parsePath(t, "2+", "1-")},
			[]string{"0+ 1+ 2-"},
		},
		{
			"disjoint",
			[]padena.ScaffoldPath{parsePath(t, "3+", "4+"), parsePath(t, "0+", "1-")},
			[]string{"0+ 1-", "3+ 4+"},
		},
	}
	for _, tt := range tests {
		purger := padena.PathPurger{}
		got := purger.PurgePaths(tt.paths)
		if len(got) != len(tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
		for i := range tt.want {
			if got[i].String() != tt.want[i] {
				t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
			}
		}
	}
}

func TestPathPurgerKeepsInput(t *testing.T) {
	paths := []padena.ScaffoldPath{parsePath(t, "0+", "1+"), parsePath(t, "1+", "2-")}
	purger := padena.PathPurger{}
	purger.PurgePaths(paths)
	if paths[0].String() != "0+ 1+" || paths[1].String() != "1+ 2-" {
		t.Fatalf("Input paths modified: %v", paths)
	}
}
