/*
 *  config_test.go
 *  padena
 *
 *  Created by Haibao Tang on 03/25/20
 *  Copyright © 2020 Haibao Tang. All rights reserved.
 */

package padena_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/padena"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))
	return filename
}

func TestNewConfigDefaults(t *testing.T) {
	c, err := padena.NewConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, padena.DefaultConfig().KmerLength, c.KmerLength)
	assert.Equal(t, -1, c.DangleThreshold)
	assert.Equal(t, padena.DefaultScaffoldDepth, c.Depth)
	assert.Equal(t, padena.DefaultRedundancy, c.Redundancy)
	assert.True(t, c.ImpliedEdges)
	assert.False(t, c.Scaffold)
}

func TestNewConfigSettingsFile(t *testing.T) {
	settings := writeSettings(t, `
kmer-length: 21
redundancy: 4
scaffold: true
libraries:
  - name: 3K
    mean: 3000
    sd: 300
`)
	c, err := padena.NewConfig(viper.New(), settings)
	require.NoError(t, err)
	assert.Equal(t, 21, c.KmerLength)
	assert.Equal(t, 4, c.Redundancy)
	assert.True(t, c.Scaffold)
	assert.Equal(t, padena.DefaultTolerance, c.Tolerance)
	require.Len(t, c.Libraries, 1)
	assert.Equal(t, padena.LibraryConfig{Name: "3K", Mean: 3000, SD: 300}, c.Libraries[0])
}

func TestNewConfigFlagsOverride(t *testing.T) {
	settings := writeSettings(t, "kmer-length: 21\ndepth: 5\n")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("kmer-length", 0, "")
	require.NoError(t, flags.Parse([]string{"--kmer-length=25"}))

	v := viper.New()
	require.NoError(t, v.BindPFlags(flags))
	c, err := padena.NewConfig(v, settings)
	require.NoError(t, err)
	assert.Equal(t, 25, c.KmerLength)
	assert.Equal(t, 5, c.Depth)
}

func TestNewConfigInvalid(t *testing.T) {
	_, err := padena.NewConfig(viper.New(), writeSettings(t, "kmer-length: 40\n"))
	assert.ErrorIs(t, err, padena.ErrInvalidInput)

	_, err = padena.NewConfig(viper.New(), writeSettings(t, "depth: 0\n"))
	assert.ErrorIs(t, err, padena.ErrInvalidInput)

	_, err = padena.NewConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *padena.Config)
	}{
		{"negative kmer length", func(c *padena.Config) { c.KmerLength = -1 }},
		{"dangle threshold", func(c *padena.Config) { c.DangleThreshold = -2 }},
		{"redundant threshold", func(c *padena.Config) { c.RedundantThreshold = -2 }},
		{"coverage threshold", func(c *padena.Config) { c.CoverageThreshold = -1 }},
		{"redundancy", func(c *padena.Config) { c.Redundancy = -1 }},
		{"tolerance", func(c *padena.Config) { c.Tolerance = -1 }},
	}
	for _, tt := range tests {
		c := padena.DefaultConfig()
		require.NoError(t, c.Validate())
		tt.modify(&c)
		assert.ErrorIs(t, c.Validate(), padena.ErrInvalidInput, tt.name)
	}
}
