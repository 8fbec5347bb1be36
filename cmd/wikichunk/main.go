// Command wikichunk chunks Wikipedia parquet dumps and extracts infobox
// fields and link graphs from them.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/wikichunk/internal/adapters/driven/output"
	"github.com/custodia-labs/wikichunk/internal/adapters/driven/parquet"
	"github.com/custodia-labs/wikichunk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/wikichunk/internal/adapters/driving/cli"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
	"github.com/custodia-labs/wikichunk/internal/logger"
	"github.com/custodia-labs/wikichunk/internal/normalisers/wikitext"
	"github.com/custodia-labs/wikichunk/internal/postprocessors"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	stores := sqlite.NewFactory()

	cli.SetDependencies(&cli.Dependencies{
		Source: parquet.New(),
		Parser: wikitext.New(),
		Pipelines: func(processors []string) (driven.PipelineFactory, error) {
			return postprocessors.NewFactory(registry, processors...)
		},
		FieldStores: stores,
		LinkStores:  stores,
		PageLookups: stores,
		Sinks: func(report io.Writer) driven.ChunkSinkFactory {
			return output.NewFactory(report)
		},
	})

	err := cli.Execute(ctx)
	if err != nil {
		logger.Error(err, "wikichunk failed")
	}
	return cli.ExitCode(err)
}
