package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetSchemaCmd verifies the schema command settings.
func TestGetSchemaCmd(t *testing.T) {
	cmd := getSchemaCmd()

	assert.Equal(t, "schema", cmd.Use)
	assert.Contains(t, cmd.Short, "tables")
	assert.Contains(t, cmd.Long, "GORM AutoMigrate")
	assert.NotNil(t, cmd.RunE, "RunE should be set")

	forceFlag := cmd.Flags().Lookup("force")
	require.NotNil(t, forceFlag, "--force flag should exist")
	assert.Equal(t, "f", forceFlag.Shorthand)
	assert.Equal(t, "false", forceFlag.DefValue)
	assert.Contains(t, forceFlag.Usage, "drop")
}
