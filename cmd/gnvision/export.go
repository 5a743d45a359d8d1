/*
Copyright © 2026 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnvision/internal/ioexport"
	"github.com/gnames/gnvision/internal/iosink"
	"github.com/gnames/gnvision/internal/iostore"
	gnvision "github.com/gnames/gnvision/pkg"
	"github.com/spf13/cobra"
)

// getExportCmd returns the export command.
func getExportCmd() *cobra.Command {
	var flags exportFlags

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export image classification dataset",
		Long: `Export a class-balanced image classification dataset.

This command:
  1. Reads active taxa from PostgreSQL or a SQLite snapshot
  2. Decides which taxa are eligible for export
  3. Fills train, val and test photo sets of every taxon,
     moving up the tree until no taxon changes
  4. Writes manifests to the output directory:
     train_data.csv, val_data.csv, test_data.csv, spatial_data.csv,
     taxonomy.csv, iconic_taxa.csv, taxonomy_visual.txt
     and export_summary.yaml

The output directory must exist.

Examples:
  gnvision export -d /data/vision
  gnvision export -d /data/vision --taxa 47126,47158 -j 8
  gnvision export -d /tmp/out --sqlite snapshot.sqlite --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, &flags)
		},
	}

	flags.register(exportCmd)

	return exportCmd
}

func runExport(cmd *cobra.Command, flags *exportFlags) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	cfg.Update(flags.options(cmd))
	if err := cfg.Validate(); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	st, err := iostore.Open(ctx, cfg)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer st.Close()

	gn.Info("Exporting dataset to <em>%s</em>", cfg.Export.OutputDir)
	exp := ioexport.New(cfg, st, ioexport.OptProgress(os.Stderr))
	s, err := exp.Export(ctx)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	printSummary(s)

	gn.Success("\nDataset is ready in <em>%s</em>", cfg.Export.OutputDir)
	gn.Info("Run details are saved in <em>%s</em>", iosink.SummaryFile)
	return nil
}

func printSummary(s gnvision.Summary) {
	gn.Info("Export finished in <em>%s</em> after %d passes",
		s.Duration, s.Passes)
	gn.Info("Taxa: %s, leaves: %s, iconic classes: %d",
		humanize.Comma(int64(s.Taxa)),
		humanize.Comma(int64(s.Leaves)),
		s.IconicClasses,
	)
	gn.Info("Photos: train %s, val %s, test %s",
		humanize.Comma(int64(s.TrainPhotos)),
		humanize.Comma(int64(s.ValPhotos)),
		humanize.Comma(int64(s.TestPhotos)),
	)
	gn.Info("Spatial points: %s", humanize.Comma(int64(s.SpatialPoints)))
	if n := len(s.FailedLookups); n > 0 {
		gn.Warn("Lookups of %d taxa failed, see the log for details", n)
	}
}
