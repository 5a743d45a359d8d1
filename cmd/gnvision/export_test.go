package main

import (
	"bytes"
	"testing"

	"github.com/gnames/gnvision/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetExportCmd_Flags verifies flag names, shorthands and defaults.
func TestGetExportCmd_Flags(t *testing.T) {
	cmd := getExportCmd()

	tests := []struct {
		name, short, def string
	}{
		{"dir", "d", ""},
		{"taxa", "t", "[]"},
		{"leaves", "l", "[]"},
		{"jobs", "j", "0"},
		{"train-min", "", "50"},
		{"train-max", "", "1000"},
		{"val-min", "", "25"},
		{"val-max", "", "100"},
		{"test-min", "", "25"},
		{"test-max", "", "100"},
		{"spatial-max", "", "5000"},
		{"train-per-obs", "", "5"},
		{"skip-ancestry-mismatch", "", "false"},
		{"sqlite", "", ""},
		{"seed", "", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.name)
			require.NotNil(t, f, "--%s flag should exist", tt.name)
			assert.Equal(t, tt.short, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

// TestExportFlags_Options verifies that only changed flags
// override configuration.
func TestExportFlags_Options(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(*testing.T, *config.Config)
	}{
		{
			name: "no flags",
			args: nil,
			check: func(t *testing.T, c *config.Config) {
				assert.Equal(t, config.New(), c)
			},
		},
		{
			name: "taxa and leaves",
			args: []string{"-t", "47126,47126,3", "-l", "5", "-d", "/tmp/out"},
			check: func(t *testing.T, c *config.Config) {
				assert.Equal(t, []int{3, 47126}, c.Export.TaxonIDs)
				assert.Equal(t, []int{5}, c.Export.LeafTaxonIDs)
				assert.Equal(t, "/tmp/out", c.Export.OutputDir)
			},
		},
		{
			name: "quotas",
			args: []string{
				"--train-min", "2", "--train-max", "3",
				"--val-min", "1", "--val-max", "2",
				"--test-min", "1", "--test-max", "4",
				"--spatial-max", "10", "--train-per-obs", "1",
			},
			check: func(t *testing.T, c *config.Config) {
				e := c.Export
				assert.Equal(t, []int{2, 3, 1, 2, 1, 4, 10, 1}, []int{
					e.TrainMin, e.TrainMax, e.ValMin, e.ValMax,
					e.TestMin, e.TestMax, e.SpatialMax, e.TrainPerObservation,
				})
			},
		},
		{
			name: "runtime",
			args: []string{
				"-j", "8", "--sqlite", "snap.sqlite", "--seed", "42",
				"--skip-ancestry-mismatch",
			},
			check: func(t *testing.T, c *config.Config) {
				assert.Equal(t, 8, c.JobsNumber)
				assert.Equal(t, "snap.sqlite", c.Export.SQLitePath)
				assert.Equal(t, int64(42), c.Export.Seed)
				assert.True(t, c.Export.SkipAncestryMismatch)
			},
		},
		{
			name: "invalid jobs ignored",
			args: []string{"--jobs=-1"},
			check: func(t *testing.T, c *config.Config) {
				assert.Equal(t, config.New().JobsNumber, c.JobsNumber)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags exportFlags
			cmd := &cobra.Command{Use: "export"}
			flags.register(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			c := config.New()
			c.Update(flags.options(cmd))
			tt.check(t, c)
		})
	}
}

// TestGetExportCmd_HelpText verifies help text content.
func TestGetExportCmd_HelpText(t *testing.T) {
	cmd := getExportCmd()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	help := buf.String()
	assert.Contains(t, help, "train_data.csv")
	assert.Contains(t, help, "--train-per-obs")
	assert.Contains(t, help, "--sqlite")
}
