package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driving"
	"github.com/custodia-labs/wikichunk/internal/core/services"
)

// dryRunListed is the number of units shown by --dry-run.
const dryRunListed = 10

var (
	batchInfobox   bool
	batchLinkGraph bool
	batchDryRun    bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process many parquet files in parallel",
	Long: `Discovers wikipedia_en_part_<N>.parquet files in --input-dir, orders them by
part number, applies --start-from and --max-files, and processes each file on
a pool of --parallelism workers. A failing file never stops the others; the
command exits non-zero when any file failed.

In chunk mode reports are discarded unless --output-dir is set, in which case
each file writes <stem>_chunks.jsonl.`,
	Example: `  wikichunk batch --input-dir parquet --extract-infobox --output-dir out
  wikichunk batch --start-from 50 --max-files 10 --dry-run`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.String("input-dir", "../wiki-extract/parquet", "directory containing the parquet files")
	f.Int("parallelism", 8, "number of files processed in parallel")
	f.Int("chunk-size", 512, "maximum chunk size in bytes")
	f.BoolVar(&batchInfobox, "extract-infobox", false, "save infobox fields per file")
	f.BoolVar(&batchLinkGraph, "extract-link-graph", false, "save the link graph per file")
	f.String("page-meta-db", "", "sqlite database with page_meta(page_id, title) to resolve link targets")
	f.Int("max-files", 0, "maximum number of files to process (0 = all)")
	f.Int("start-from", 1, "skip files with a part number below this")
	f.BoolVar(&batchDryRun, "dry-run", false, "list the files that would be processed and exit")
	f.String("output-dir", "", "directory for storage and chunk files")
	f.Int("timeout", 3000, "per-file timeout in seconds")
	f.Float64("rate", 0, "maximum files started per second (0 = unlimited)")
	f.Int("progress-every", 50, "print a progress line every N files (0 = never)")
	batchCmd.MarkFlagsMutuallyExclusive("extract-infobox", "extract-link-graph")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if deps == nil {
		return errors.New("batch service not configured")
	}

	req := driving.BatchRequest{
		InputDir:         opts.InputDir,
		OutputDir:        opts.OutputDir,
		StartFrom:        opts.StartFrom,
		MaxFiles:         opts.MaxFiles,
		ChunkSize:        opts.ChunkSize,
		ExtractInfobox:   batchInfobox,
		ExtractLinkGraph: batchLinkGraph,
		PageMetaDB:       opts.PageMetaDB,
	}

	runner, err := newRunner(nil)
	if err != nil {
		return err
	}
	orchestrator := services.NewBatchOrchestrator(
		runner,
		services.WithParallelism(opts.Parallelism),
		services.WithProgressEvery(opts.ProgressEvery),
		services.WithRate(opts.Rate),
	)

	plan, err := orchestrator.Plan(cmd.Context(), req)
	switch {
	case errors.Is(err, domain.ErrFileNotFound):
		cmd.PrintErrf("Directory not found: %s\n", req.InputDir)
		return err
	case errors.Is(err, domain.ErrNoUnits):
		cmd.PrintErrf("No parquet files found matching pattern %s in %s\n", services.FilePattern, req.InputDir)
		return err
	case err != nil:
		return err
	}

	cmd.Printf("Found %d parquet files\n", plan.Discovered)
	if req.StartFrom > 1 || req.MaxFiles > 0 {
		cmd.Printf("Processing %d files (start from %d, max files %d)\n", len(plan.Units), req.StartFrom, req.MaxFiles)
	}
	if batchDryRun {
		printDryRun(cmd, plan)
		return nil
	}

	if len(plan.Units) == 0 {
		cmd.Println("No files to process!")
		return nil
	}

	cmd.Printf("Mode: %s | Workers: %d | Timeout: %s\n\n",
		plan.Units[0].Mode.Name(), orchestrator.Parallelism(), opts.TimeoutDuration())

	summary, err := orchestrator.Run(cmd.Context(), plan, newReporter(cmd.OutOrStdout()))
	switch {
	case errors.Is(err, domain.ErrInterrupted):
		cmd.Println("\nProcessing interrupted by user.")
	case summary.Failed > 0:
		cmd.Printf("\n%d files failed to process. Check the error messages above.\n", summary.Failed)
	case err == nil:
		cmd.Println("\nAll files processed successfully!")
	}
	return err
}

// printDryRun lists the first units of the plan.
func printDryRun(cmd *cobra.Command, plan *driving.BatchPlan) {
	cmd.Println("\nDry run - files that would be processed:")
	for i, u := range plan.Units {
		if i == dryRunListed {
			cmd.Printf("  ... and %d more files\n", len(plan.Units)-dryRunListed)
			break
		}
		cmd.Printf("  %d. %s\n", i+1, u.Name())
		if t := target(u.Mode); t != "" {
			cmd.Printf("      -> %s\n", t)
		}
	}
}

// target returns where a unit's output goes, empty when it is not stored.
func target(mode domain.Mode) string {
	switch m := mode.(type) {
	case domain.FieldExtractionMode:
		return m.StorageTarget
	case domain.LinkGraphMode:
		return m.StorageTarget
	case domain.ChunkMode:
		return m.OutputPath
	}
	return ""
}
