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

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/internal/iodb"
	"github.com/gnames/gnvision/internal/ioschema"
	"github.com/spf13/cobra"
)

// getSchemaCmd returns the schema command.
func getSchemaCmd() *cobra.Command {
	var force bool

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Create source tables in PostgreSQL",
		Long: `Create observation source tables in PostgreSQL.

The tables follow the layout of an iNaturalist database dump:
taxa, observations, observation_photos, photos, quality_metrics,
flags and conservation_statuses. The command is meant for
development and integration-test databases.

This command:
  1. Connects to PostgreSQL using configuration settings
  2. Creates missing tables using GORM AutoMigrate
  3. Creates indexes used by the export queries

Use --force to drop existing tables first.

Examples:
  gnvision schema
  gnvision schema --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(force)
		},
	}

	schemaCmd.Flags().BoolVarP(&force, "force", "f",
		false, "drop existing tables before creation")

	return schemaCmd
}

func runSchema(force bool) error {
	ctx := context.Background()

	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer op.Close()

	gn.Info("Connected to database: <em>%s@%s:%d/%s</em>",
		cfg.Database.User, cfg.Database.Host,
		cfg.Database.Port, cfg.Database.Database)

	if err := ioschema.NewManager(op, force).Create(ctx); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info("Source tables are ready")
	return nil
}
