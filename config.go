/*
 *  config.go
 *  padena
 *
 *  Created by Haibao Tang on 03/25/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena

import (
	"fmt"

	"github.com/spf13/viper"
)

// LibraryConfig is a clone library given in the settings file
type LibraryConfig struct {
	Name string  `mapstructure:"name"`
	Mean float64 `mapstructure:"mean"`
	SD   float64 `mapstructure:"sd"`
}

// Config holds the assembly parameters, unmarshalled from viper so it mixes
// the settings file and the command line
type Config struct {
	// kmer length, 0 estimates it from the reads
	KmerLength int `mapstructure:"kmer-length"`
	// maximum length of a dangling link, -1 uses k+1
	DangleThreshold int `mapstructure:"dangle-threshold"`
	// maximum length of a bubble branch, -1 uses 3(k+1)
	RedundantThreshold int `mapstructure:"redundant-threshold"`
	// contigs with lower average kmer count are dropped, 0 keeps all
	CoverageThreshold float64 `mapstructure:"coverage-threshold"`
	// link every pair of kmers overlapping by k-1, not only those seen in reads
	ImpliedEdges bool `mapstructure:"implied-edges"`
	// skip reads with symbols outside ACGT instead of failing
	SkipInvalidReads bool `mapstructure:"skip-invalid-reads"`

	// build scaffolds after contigs
	Scaffold bool `mapstructure:"scaffold"`
	// depth of the scaffold path search
	Depth int `mapstructure:"depth"`
	// minimum number of mate pairs supporting a link
	Redundancy int `mapstructure:"redundancy"`
	// number of sd a mate pair distance may deviate
	Tolerance float64 `mapstructure:"tolerance"`
	// keep at most one link per contig end
	MatchEnds bool `mapstructure:"match-ends"`
	// reverse mates are sequenced from the opposite strand
	OppositeStrandMates bool `mapstructure:"opposite-strand-mates"`
	// extra clone libraries
	Libraries []LibraryConfig `mapstructure:"libraries"`

	// number of goroutines, 0 uses all CPUs
	Workers int `mapstructure:"workers"`
}

// DefaultConfig returns the default parameters
func DefaultConfig() Config {
	return Config{
		KmerLength:         0,
		DangleThreshold:    -1,
		RedundantThreshold: -1,
		ImpliedEdges:       true,
		SkipInvalidReads:   true,
		Depth:              DefaultScaffoldDepth,
		Redundancy:         DefaultRedundancy,
		Tolerance:          DefaultTolerance,
	}
}

// SetDefaults registers the default parameters on a viper instance
func SetDefaults(v *viper.Viper) {
	c := DefaultConfig()
	v.SetDefault("kmer-length", c.KmerLength)
	v.SetDefault("dangle-threshold", c.DangleThreshold)
	v.SetDefault("redundant-threshold", c.RedundantThreshold)
	v.SetDefault("coverage-threshold", c.CoverageThreshold)
	v.SetDefault("implied-edges", c.ImpliedEdges)
	v.SetDefault("skip-invalid-reads", c.SkipInvalidReads)
	v.SetDefault("scaffold", c.Scaffold)
	v.SetDefault("depth", c.Depth)
	v.SetDefault("redundancy", c.Redundancy)
	v.SetDefault("tolerance", c.Tolerance)
	v.SetDefault("match-ends", c.MatchEnds)
	v.SetDefault("opposite-strand-mates", c.OppositeStrandMates)
	v.SetDefault("workers", c.Workers)
}

// NewConfig returns a Config populated by viper. When settingsFile is not
// empty it is read first, values bound from flags take precedence.
func NewConfig(v *viper.Viper, settingsFile string) (Config, error) {
	var c Config
	SetDefaults(v)
	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("read settings `%s`: %w", settingsFile, err)
		}
		log.Noticef("Parse settings `%s`", settingsFile)
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unable to decode settings: %w", err)
	}
	return c, c.Validate()
}

// Validate checks the parameters that do not depend on the reads
func (c *Config) Validate() error {
	switch {
	case c.KmerLength < 0 || c.KmerLength > MaxKmerLength:
		return fmt.Errorf("%w: kmer length %d not in [0, %d]", ErrInvalidInput, c.KmerLength, MaxKmerLength)
	case c.DangleThreshold < -1:
		return fmt.Errorf("%w: dangle threshold %d", ErrInvalidInput, c.DangleThreshold)
	case c.RedundantThreshold < -1:
		return fmt.Errorf("%w: redundant threshold %d", ErrInvalidInput, c.RedundantThreshold)
	case c.CoverageThreshold < 0:
		return fmt.Errorf("%w: coverage threshold %g", ErrInvalidInput, c.CoverageThreshold)
	case c.Depth <= 0:
		return fmt.Errorf("%w: depth %d", ErrInvalidInput, c.Depth)
	case c.Redundancy < 0:
		return fmt.Errorf("%w: redundancy %d", ErrInvalidInput, c.Redundancy)
	case c.Tolerance < 0:
		return fmt.Errorf("%w: tolerance %g", ErrInvalidInput, c.Tolerance)
	}
	return nil
}

// resolve fills the thresholds that depend on k
func (c *Config) resolve(k int) {
	c.KmerLength = k
	if c.DangleThreshold == -1 {
		c.DangleThreshold = k + 1
	}
	if c.RedundantThreshold == -1 {
		c.RedundantThreshold = 3 * (k + 1)
	}
}
