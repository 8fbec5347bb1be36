package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driving"
	"github.com/custodia-labs/wikichunk/internal/core/services"
)

var (
	extractInput     string
	extractDocID     int64
	extractInfobox   bool
	extractLinkGraph bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Process a single parquet file",
	Long: `Reads one parquet file of articles and, for every non-redirect article,
prints a chunk report. With --extract-infobox the infobox fields are saved to
<stem>_infobox.db instead; with --extract-link-graph the article links are
saved to <stem>_linkgraph.db.`,
	Example: `  wikichunk extract --input wikipedia_en_part_001.parquet --docid 12
  wikichunk extract --input wikipedia_en_part_001.parquet --extract-infobox --output-dir out`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractInput, "input", "", "parquet file to process (required)")
	f.Int("chunk-size", 512, "maximum chunk size in bytes")
	f.Int64Var(&extractDocID, "docid", 0, "only process this document id (0 = all)")
	f.BoolVar(&extractInfobox, "extract-infobox", false, "save infobox fields instead of printing chunks")
	f.BoolVar(&extractLinkGraph, "extract-link-graph", false, "save the link graph instead of printing chunks")
	f.String("page-meta-db", "", "sqlite database with page_meta(page_id, title) to resolve link targets")
	f.String("output-dir", "", "directory for storage and chunk files")
	f.Int("timeout", 3000, "timeout in seconds")
	_ = extractCmd.MarkFlagRequired("input")
	extractCmd.MarkFlagsMutuallyExclusive("extract-infobox", "extract-link-graph")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	if deps == nil {
		return errors.New("extract service not configured")
	}

	if _, err := os.Stat(extractInput); err != nil {
		cmd.PrintErrf("File not found: %s\n", extractInput)
		return fmt.Errorf("%w: %s", domain.ErrFileNotFound, extractInput)
	}

	req := driving.BatchRequest{
		OutputDir:        opts.OutputDir,
		ChunkSize:        opts.ChunkSize,
		ExtractInfobox:   extractInfobox,
		ExtractLinkGraph: extractLinkGraph,
		PageMetaDB:       opts.PageMetaDB,
	}
	unit := domain.JobUnit{Path: extractInput, DocID: extractDocID}
	unit.Part, unit.Numbered = services.PartNumber(filepath.Base(extractInput))

	mode, err := services.ModeFor(unit.Stem(), req)
	if err != nil {
		return err
	}
	unit.Mode = mode

	runner, err := newRunner(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	out := runner.Run(cmd.Context(), unit)

	if errors.Is(out.Err, domain.ErrInterrupted) {
		cmd.Println("\nProcessing interrupted by user.")
		return out.Err
	}
	if !out.Success {
		cmd.PrintErrf("Error processing %s: %s\n", unit.Name(), out.Message)
		return out.Err
	}

	if unit.DocID != 0 && out.Records == 0 {
		cmd.Printf("No article found with document ID %d (or it's a redirect page)\n", unit.DocID)
		return nil
	}

	switch m := unit.Mode.(type) {
	case domain.FieldExtractionMode:
		cmd.Printf("Saved infobox fields of %d articles to %s\n", out.Records, m.StorageTarget)
	case domain.LinkGraphMode:
		cmd.Printf("Saved link graph of %d articles to %s\n", out.Records, m.StorageTarget)
	case domain.ChunkMode:
		if m.OutputPath != "" {
			cmd.Printf("Wrote chunks of %d articles to %s\n", out.Records, m.OutputPath)
		}
	}
	return nil
}

// newRunner builds a job runner from the current dependencies and options.
// Chunk reports go to report when it is non-nil.
func newRunner(report io.Writer) (*services.JobRunner, error) {
	pipelines, err := deps.Pipelines(opts.Processors)
	if err != nil {
		return nil, err
	}
	processor := services.NewRecordProcessor(deps.Parser, pipelines)
	return services.NewJobRunner(
		deps.Source,
		processor,
		deps.Sinks(report),
		deps.FieldStores,
		deps.LinkStores,
		deps.PageLookups,
		opts.TimeoutDuration(),
	), nil
}
