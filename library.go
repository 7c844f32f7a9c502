/*
 * Filename: /Users/bao/code/padena/library.go
 * Path: /Users/bao/code/padena
 * Created Date: Saturday, July 7th 2018, 1:33:37 pm
 * Author: bao
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gobuffalo/packr"
)

// CloneLibraryInformation is the insert size of a sequencing library
type CloneLibraryInformation struct {
	Name              string
	MeanLength        float64
	StandardDeviation float64
}

// CloneLibrary is a registry of libraries keyed by name
type CloneLibrary struct {
	sync.RWMutex
	libraries map[string]CloneLibraryInformation
}

// NewCloneLibrary returns a registry filled with the bundled libraries
func NewCloneLibrary() (*CloneLibrary, error) {
	r := &CloneLibrary{libraries: map[string]CloneLibraryInformation{}}
	box := packr.NewBox("./data")
	s, err := box.FindString("libraries.txt")
	if err != nil {
		return nil, err
	}
	if err := r.Load(strings.NewReader(s)); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads tab or space separated lines of name, mean and sd. Lines
// starting with # are skipped.
func (r *CloneLibrary) Load(rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	for lineno := 1; scanner.Scan(); lineno++ {
		row := strings.TrimSpace(scanner.Text())
		if row == "" || row[0] == '#' {
			continue
		}
		words := strings.Fields(row)
		if len(words) < 3 {
			return fmt.Errorf("%w: library line %d has %d fields", ErrInvalidInput, lineno, len(words))
		}
		mean, err := strconv.ParseFloat(words[1], 64)
		if err != nil {
			return fmt.Errorf("%w: library line %d: %v", ErrInvalidInput, lineno, err)
		}
		sd, err := strconv.ParseFloat(words[2], 64)
		if err != nil {
			return fmt.Errorf("%w: library line %d: %v", ErrInvalidInput, lineno, err)
		}
		if err := r.AddLibrary(words[0], mean, sd); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// AddLibrary registers a library, replacing any library with the same name
func (r *CloneLibrary) AddLibrary(name string, mean, sd float64) error {
	if name == "" {
		return fmt.Errorf("%w: empty library name", ErrInvalidInput)
	}
	if mean < 0 || sd < 0 {
		return fmt.Errorf("%w: library `%s` has mean %g and sd %g", ErrInvalidInput, name, mean, sd)
	}
	r.Lock()
	defer r.Unlock()
	r.libraries[name] = CloneLibraryInformation{name, mean, sd}
	return nil
}

// GetLibraryInformation looks up a library by name
func (r *CloneLibrary) GetLibraryInformation(name string) (CloneLibraryInformation, error) {
	r.RLock()
	defer r.RUnlock()
	lib, ok := r.libraries[name]
	if !ok {
		return lib, fmt.Errorf("%w: `%s`", ErrUnknownLibrary, name)
	}
	return lib, nil
}

// Libraries lists all libraries sorted by name
func (r *CloneLibrary) Libraries() []CloneLibraryInformation {
	r.RLock()
	defer r.RUnlock()
	libs := make([]CloneLibraryInformation, 0, len(r.libraries))
	for _, lib := range r.libraries {
		libs = append(libs, lib)
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].Name < libs[j].Name })
	return libs
}
