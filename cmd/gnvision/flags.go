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
	"fmt"
	"os"

	gnvision "github.com/gnames/gnvision/pkg"
	"github.com/gnames/gnvision/pkg/config"
	"github.com/spf13/cobra"
)

func versionFlag(cmd *cobra.Command) {
	hasVersionFlag, _ := cmd.Flags().GetBool("version")
	if hasVersionFlag {
		fmt.Printf("\nversion: %s\nbuild: %s\n\n",
			gnvision.Version, gnvision.Build)
		os.Exit(0)
	}
}

// exportFlags keeps values of the export command flags.
type exportFlags struct {
	dir          string
	taxa         []int
	leaves       []int
	trainMin     int
	trainMax     int
	valMin       int
	valMax       int
	testMin      int
	testMax      int
	spatialMax   int
	trainPerObs  int
	skipMismatch bool
	jobs         int
	sqlite       string
	seed         int64
}

func (f *exportFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.dir, "dir", "d", "",
		"output directory for manifests")
	fs.IntSliceVarP(&f.taxa, "taxa", "t", []int{},
		"export only these taxa, their ancestors and descendants")
	fs.IntSliceVarP(&f.leaves, "leaves", "l", []int{},
		"treat these taxa as leaves")
	fs.IntVar(&f.trainMin, "train-min", config.DefaultTrainMin,
		"minimum train photos per class")
	fs.IntVar(&f.trainMax, "train-max", config.DefaultTrainMax,
		"maximum train photos per class")
	fs.IntVar(&f.valMin, "val-min", config.DefaultValMin,
		"minimum val photos per class")
	fs.IntVar(&f.valMax, "val-max", config.DefaultValMax,
		"maximum val photos per class")
	fs.IntVar(&f.testMin, "test-min", config.DefaultTestMin,
		"minimum test photos per class")
	fs.IntVar(&f.testMax, "test-max", config.DefaultTestMax,
		"maximum test photos per class")
	fs.IntVar(&f.spatialMax, "spatial-max", config.DefaultSpatialMax,
		"maximum geospatial points per class")
	fs.IntVar(&f.trainPerObs, "train-per-obs",
		config.DefaultTrainPerObservation,
		"maximum train photos of one observation")
	fs.BoolVar(&f.skipMismatch, "skip-ancestry-mismatch", false,
		"log conflicting parents instead of stopping")
	fs.IntVarP(&f.jobs, "jobs", "j", 0,
		"number of taxa processed concurrently")
	fs.StringVar(&f.sqlite, "sqlite", "",
		"read a SQLite snapshot instead of PostgreSQL")
	fs.Int64Var(&f.seed, "seed", 1,
		"seed of random shuffles")
}

// options converts explicitly set flags to config options.
func (f *exportFlags) options(cmd *cobra.Command) []config.Option {
	var res []config.Option
	changed := cmd.Flags().Changed

	if changed("dir") {
		res = append(res, config.OptExportOutputDir(f.dir))
	}
	if changed("taxa") {
		res = append(res, config.OptExportTaxonIDs(f.taxa))
	}
	if changed("leaves") {
		res = append(res, config.OptExportLeafTaxonIDs(f.leaves))
	}

	ints := []struct {
		name string
		val  int
		opt  func(int) config.Option
	}{
		{"train-min", f.trainMin, config.OptExportTrainMin},
		{"train-max", f.trainMax, config.OptExportTrainMax},
		{"val-min", f.valMin, config.OptExportValMin},
		{"val-max", f.valMax, config.OptExportValMax},
		{"test-min", f.testMin, config.OptExportTestMin},
		{"test-max", f.testMax, config.OptExportTestMax},
		{"spatial-max", f.spatialMax, config.OptExportSpatialMax},
		{"train-per-obs", f.trainPerObs, config.OptExportTrainPerObservation},
		{"jobs", f.jobs, config.OptJobsNumber},
	}
	for _, v := range ints {
		if changed(v.name) {
			res = append(res, v.opt(v.val))
		}
	}

	if changed("skip-ancestry-mismatch") {
		res = append(res, config.OptExportSkipAncestryMismatch(f.skipMismatch))
	}
	if changed("sqlite") {
		res = append(res, config.OptExportSQLitePath(f.sqlite))
	}
	if changed("seed") {
		res = append(res, config.OptExportSeed(f.seed))
	}
	return res
}
