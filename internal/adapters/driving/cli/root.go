// Package cli provides the wikichunk command-line interface.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikichunk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
	"github.com/custodia-labs/wikichunk/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Dependencies holds the driven adapters the commands are built from.
type Dependencies struct {
	Source      driven.RecordSource
	Parser      driven.MarkupParser
	FieldStores driven.FieldStoreFactory
	LinkStores  driven.LinkStoreFactory
	PageLookups driven.PageLookupFactory

	// Pipelines builds the pipeline factory for the configured processor
	// chain. An empty chain selects the default one.
	Pipelines func(processors []string) (driven.PipelineFactory, error)

	// Sinks returns the chunk sink factory for a command. A nil report
	// writer means chunks are only written to per-unit output files.
	Sinks func(report io.Writer) driven.ChunkSinkFactory
}

// deps holds the current dependencies.
var deps *Dependencies

// SetDependencies sets the adapters used by the commands.
func SetDependencies(d *Dependencies) {
	deps = d
}

// Persistent flags.
var (
	configPath string
	envFile    string
	verbose    bool
)

// opts holds the resolved options of the running command.
var opts file.Options

var rootCmd = &cobra.Command{
	Use:   "wikichunk",
	Short: "Chunk and mine Wikipedia article dumps",
	Long: `wikichunk reads Wikipedia articles from wikipedia_en_part_<N>.parquet files,
strips their markup and either splits the text into byte-bounded chunks,
extracts infobox fields, or collects the article link graph.

Settings are resolved from built-in defaults, then --config (TOML or YAML),
then WIKICHUNK_* environment variables (optionally from --env-file), then
command-line flags.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadOptions,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (TOML, or YAML by extension)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with WIKICHUNK_* variables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrInterrupted):
		return 130
	default:
		return 1
	}
}

// loadOptions resolves opts and configures logging before each command.
func loadOptions(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())

	resolved, err := file.Load(configPath, envFile)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &resolved); err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		resolved.Verbose = verbose
	}
	if err := resolved.Validate(); err != nil {
		return err
	}

	opts = resolved
	logger.SetVerbose(opts.Verbose)
	return nil
}

// applyFlags overlays the explicitly set flags of cmd onto o.
func applyFlags(cmd *cobra.Command, o *file.Options) error {
	flags := cmd.Flags()

	strs := map[string]*string{
		"input-dir":    &o.InputDir,
		"output-dir":   &o.OutputDir,
		"page-meta-db": &o.PageMetaDB,
	}
	for name, dst := range strs {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			v, err := flags.GetString(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	ints := map[string]*int{
		"chunk-size":     &o.ChunkSize,
		"parallelism":    &o.Parallelism,
		"start-from":     &o.StartFrom,
		"max-files":      &o.MaxFiles,
		"timeout":        &o.Timeout,
		"progress-every": &o.ProgressEvery,
	}
	for name, dst := range ints {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			v, err := flags.GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	if flags.Lookup("rate") != nil && flags.Changed("rate") {
		v, err := flags.GetFloat64("rate")
		if err != nil {
			return err
		}
		o.Rate = v
	}
	return nil
}
