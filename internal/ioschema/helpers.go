package ioschema

import "strings"

// idempotentIndex makes a CREATE INDEX statement safe to repeat.
func idempotentIndex(ddl string) string {
	const prefix = "CREATE INDEX "
	if !strings.HasPrefix(ddl, prefix) ||
		strings.HasPrefix(ddl, prefix+"IF NOT EXISTS ") {
		return ddl
	}
	return prefix + "IF NOT EXISTS " + strings.TrimPrefix(ddl, prefix)
}
