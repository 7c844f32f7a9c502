/**
 * Filename: /Users/htang/code/padena/command.go
 * Path: /Users/htang/code/padena
 * Created Date: Wednesday, January 3rd 2018, 11:21:45 am
 * Author: htang
 *
 * Copyright (c) 2018 Haibao Tang
 */

package padena

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// banner prints the separate steps
func banner(message string) {
	message = "* " + message + " *"
	log.Notice(strings.Repeat("*", len(message)))
	log.Notice(message)
	log.Notice(strings.Repeat("*", len(message)))
}

// addAssemblyFlags registers the flags shared by assemble and stats. Flag
// names match the keys of the settings file.
func addAssemblyFlags(flags *pflag.FlagSet) {
	c := DefaultConfig()
	flags.StringP("settings", "s", "", "settings file (yaml, toml or json)")
	flags.IntP("kmer-length", "k", c.KmerLength, "kmer length, 0 estimates it from the reads")
	flags.Int("dangle-threshold", c.DangleThreshold, "maximum length of a dangling link, -1 uses k+1")
	flags.Int("redundant-threshold", c.RedundantThreshold, "maximum length of a bubble branch, -1 uses 3(k+1)")
	flags.Float64("coverage-threshold", c.CoverageThreshold, "minimum average kmer count of a contig")
	flags.Bool("implied-edges", c.ImpliedEdges, "link all kmers overlapping by k-1")
	flags.Bool("skip-invalid-reads", c.SkipInvalidReads, "skip reads with symbols outside ACGT")
	flags.IntP("workers", "t", c.Workers, "number of goroutines, 0 uses all CPUs")
}

// addScaffoldFlags registers the scaffolding flags
func addScaffoldFlags(flags *pflag.FlagSet) {
	c := DefaultConfig()
	flags.Int("depth", c.Depth, "depth of the scaffold path search")
	flags.Int("redundancy", c.Redundancy, "minimum number of mate pairs supporting a link")
	flags.Float64("tolerance", c.Tolerance, "number of sd a mate pair distance may deviate")
	flags.Bool("match-ends", c.MatchEnds, "keep at most one link per contig end")
	flags.Bool("opposite-strand-mates", c.OppositeStrandMates, "reverse mates are sequenced from the opposite strand")
	flags.String("library-file", "", "extra clone libraries, lines of name mean sd")
	flags.Bool("plot", false, "export the link matrix (.npy) and the contig graph (.dot)")
}

// loadConfig merges the settings file and the flags of a command
func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, err
	}
	settings, _ := cmd.Flags().GetString("settings")
	return NewConfig(v, settings)
}

// loadLibraries returns the bundled libraries plus those of the library file
func loadLibraries(cmd *cobra.Command) (*CloneLibrary, error) {
	libraries, err := NewCloneLibrary()
	if err != nil {
		return nil, err
	}
	libraryFile, _ := cmd.Flags().GetString("library-file")
	if libraryFile == "" {
		return libraries, nil
	}
	fh, err := os.Open(libraryFile)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	log.Noticef("Parse library file `%s`", libraryFile)
	return libraries, libraries.Load(fh)
}

// writeScaffolds writes the FASTA, AGP, links and optional plots
func writeScaffolds(cmd *cobra.Command, prefix string, cg *ContigGraph,
	scaffolds []Scaffold, links []ContigLink) error {
	if err := WriteScaffolds(prefix+".scaffolds.fasta", scaffolds); err != nil {
		return err
	}
	if err := WriteAGPFile(prefix+".scaffolds.agp", cg, scaffolds); err != nil {
		return err
	}
	if err := writeLinks(prefix+".links.txt", links); err != nil {
		return err
	}
	if plot, _ := cmd.Flags().GetBool("plot"); plot {
		p := Plotter{Prefix: prefix}
		return p.Run(cg, links)
	}
	return nil
}

// writeLinks writes one contig link per line
func writeLinks(filename string, links []ContigLink) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	fmt.Fprintln(f, "#path\tdistance\tsd\tsupport")
	for _, link := range links {
		fmt.Fprintln(f, link)
	}
	log.Noticef("A total of %d links written to `%s`", len(links), filename)
	return f.Close()
}

var assembleCmd = &cobra.Command{
	Use:   "assemble reads.fasta",
	Short: "Assemble reads into contigs and scaffolds",
	Long: `
Assemble function:
Given a set of reads, build the de Bruijn graph of their kmers, remove the
dangling links and bubbles caused by sequencing errors, and output the
unambiguous paths as contigs. With --scaffold, reads named like
<pair>.x1:<library> and <pair>.y1:<library> are used as mate pairs to join
the contigs into scaffolds.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		libraries, err := loadLibraries(cmd)
		if err != nil {
			return err
		}
		reads, err := ReadSequences(args[0])
		if err != nil {
			return err
		}
		prefix, _ := cmd.Flags().GetString("output")
		if prefix == "" {
			prefix = RemoveExt(args[0])
		}

		banner("Assemble")
		assembler := ParallelDeNovoAssembler{Config: c, Libraries: libraries}
		assembly, err := assembler.Assemble(reads)
		if err != nil {
			return err
		}
		if err := WriteContigs(prefix+".contigs.fasta", assembly.Contigs); err != nil {
			return err
		}
		if assembly.ContigGraph == nil {
			return nil
		}
		return writeScaffolds(cmd, prefix, assembly.ContigGraph, assembly.Scaffolds, assembly.Links)
	},
}

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold contigs.fasta reads.fasta",
	Short: "Join existing contigs into scaffolds with mate pairs",
	Long: `
Scaffold function:
Given contigs that overlap by k-1 bases and mate pair reads, link the contigs
by the mate pairs that map to different contigs, then search the contig
overlap graph for paths that agree with the linked distances. Read mappings
are taken from --paf or --bam when given, otherwise reads are mapped by
exact kmer hits.
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if c.KmerLength == 0 {
			return fmt.Errorf("%w: scaffold needs the kmer length of the contigs", ErrInvalidInput)
		}
		libraries, err := loadLibraries(cmd)
		if err != nil {
			return err
		}
		contigs, err := ReadContigs(args[0])
		if err != nil {
			return err
		}
		reads, err := ReadSequences(args[1])
		if err != nil {
			return err
		}
		prefix, _ := cmd.Flags().GetString("output")
		if prefix == "" {
			prefix = RemoveExt(args[0])
		}

		var mapper ReadContigMapper
		if paffile, _ := cmd.Flags().GetString("paf"); paffile != "" {
			mapper = &PafMapper{PafFile: paffile}
		} else if bamfile, _ := cmd.Flags().GetString("bam"); bamfile != "" {
			mapper = &BamMapper{Bamfile: bamfile}
		}

		banner("Scaffold")
		builder := GraphScaffoldBuilder{
			K:                   c.KmerLength,
			Depth:               c.Depth,
			Redundancy:          c.Redundancy,
			Tolerance:           c.Tolerance,
			MatchContigEnds:     c.MatchEnds,
			OppositeStrandMates: c.OppositeStrandMates,
			Workers:             c.Workers,
			Mapper:              mapper,
			Libraries:           libraries,
		}
		for _, lib := range c.Libraries {
			if err := libraries.AddLibrary(lib.Name, lib.Mean, lib.SD); err != nil {
				return err
			}
		}
		scaffolds, err := builder.BuildScaffold(reads, contigs)
		if err != nil {
			return err
		}
		return writeScaffolds(cmd, prefix, builder.Graph, scaffolds, builder.Links)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build scaffolds.agp contigs.fasta",
	Short: "Build scaffold sequences from an AGP file",
	Long: `
Build function:
Convert the AGP file into the scaffold FASTA, gaps become runs of N.
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = RemoveExt(args[0]) + ".fasta"
		}
		return BuildFasta(args[0], args[1], output)
	},
}

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List the clone libraries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		libraries, err := loadLibraries(cmd)
		if err != nil {
			return err
		}
		fmt.Println("#name\tmean\tsd")
		for _, lib := range libraries.Libraries() {
			fmt.Printf("%s\t%g\t%g\n", lib.Name, lib.MeanLength, lib.StandardDeviation)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats reads.fasta",
	Short: "Report the de Bruijn graph before and after error removal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reads, err := ReadSequences(args[0])
		if err != nil {
			return err
		}
		k := c.KmerLength
		if k == 0 {
			k = EstimateKmerLength(reads)
		}
		c.resolve(k)
		builder := KmerGraphBuilder{
			K:                k,
			ImpliedEdges:     c.ImpliedEdges,
			SkipInvalidReads: c.SkipInvalidReads,
			Workers:          c.Workers,
		}
		g, err := builder.Build(reads)
		if err != nil {
			return err
		}
		fmt.Printf("k\t%d\n", k)
		fmt.Printf("reads\t%d\n", len(reads))
		fmt.Printf("rejected\t%d\n", len(g.Rejected))
		fmt.Printf("nodes\t%d\n", g.NodeCount())
		fmt.Printf("extensions\t%d\n", g.EdgeCount())

		dangling := DanglingLinksPurger{Threshold: c.DangleThreshold, Workers: c.Workers}
		redundant := RedundantPathsPurger{Threshold: c.RedundantThreshold, Workers: c.Workers}
		fmt.Printf("dangling\t%d\n", dangling.Purge(g))
		fmt.Printf("redundant\t%d\n", redundant.Purge(g))
		fmt.Printf("nodes.purged\t%d\n", g.NodeCount())
		fmt.Printf("extensions.purged\t%d\n", g.EdgeCount())
		hist := g.CoverageHistogram()
		for count, n := range hist {
			if n > 0 {
				fmt.Printf("coverage.%d\t%.0f\n", count, n)
			}
		}
		if npyfile, _ := cmd.Flags().GetString("npy"); npyfile != "" {
			return WriteCoverageHistogram(npyfile, hist)
		}
		return nil
	},
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "padena",
	Short:   "Parallel de novo assembler based on de Bruijn graphs",
	Version: Version,
	Long: `
 ____       ____        _   _    _
|  _ \ __ _|  _ \  ___ | \ | |  / \
| |_) / _' | | | |/ _ \|  \| | / _ \
|  __/ (_| | |_| |  __/| |\  |/ ___ \
|_|   \__,_|____/ \___||_| \_/_/   \_\
`,
	SilenceUsage: true,
}

func init() {
	addAssemblyFlags(assembleCmd.Flags())
	addScaffoldFlags(assembleCmd.Flags())
	assembleCmd.Flags().Bool("scaffold", false, "join the contigs into scaffolds with mate pairs")
	assembleCmd.Flags().StringP("output", "o", "", "output prefix, defaults to the reads file name")

	scaffoldCmd.Flags().StringP("settings", "s", "", "settings file (yaml, toml or json)")
	scaffoldCmd.Flags().IntP("kmer-length", "k", 0, "kmer length the contigs were built with")
	scaffoldCmd.Flags().IntP("workers", "t", 0, "number of goroutines, 0 uses all CPUs")
	addScaffoldFlags(scaffoldCmd.Flags())
	scaffoldCmd.Flags().String("paf", "", "read mappings in PAF, e.g. from minimap2")
	scaffoldCmd.Flags().String("bam", "", "read mappings in BAM")
	scaffoldCmd.Flags().StringP("output", "o", "", "output prefix, defaults to the contigs file name")

	buildCmd.Flags().StringP("output", "o", "", "output FASTA, defaults to the AGP file name")
	librariesCmd.Flags().String("library-file", "", "extra clone libraries, lines of name mean sd")
	addAssemblyFlags(statsCmd.Flags())
	statsCmd.Flags().String("npy", "", "export the coverage histogram of the purged graph to .npy")

	rootCmd.AddCommand(assembleCmd, scaffoldCmd, buildCmd, librariesCmd, statsCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
