package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError
	OutputDirError
	OutputFileError
	WriteFileError

	// Logging errors
	CreateLogFileError

	// Configuration errors
	ConfigQuotaError

	// Database errors
	DBConnectionError
	DBNotConnectedError
	DBTableCheckError
	DBTableExistsCheckError
	DBQueryTablesError
	DBScanTableError
	DBDropTableError
	DBEmptyDatabaseError
	DBQueryError
	DBScanError
	SnapshotOpenError

	// Schema errors
	SchemaGORMConnectionError
	SchemaCreateError
	SchemaIndexError

	// Ingestion errors
	IngestAncestryMismatchError
	IngestAncestryParseError
	IngestBatchError

	// Export errors
	ExportCycleError
	ExportNoProgressError
	ExportPassLimitError
	ExportStatusRegressionError
	ExportLookupError
	ExportCommitError
)
