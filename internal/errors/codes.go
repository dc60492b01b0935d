// Package errors provides structured error handling for codeturtle.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (fatal before any store mutation)
//   - 2XX: Input errors (named change lists)
//   - 3XX: File I/O errors (recovered per file)
//   - 4XX: Embedding/network errors
//   - 5XX: Vector store errors
//   - 6XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryInput indicates errors reading explicitly-named change lists.
	CategoryInput Category = "INPUT"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates embedding/network errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryStore indicates vector store errors.
	CategoryStore Category = "STORE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort the run.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates an operation failed but the run can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid     = "ERR_101_CONFIG_INVALID"
	ErrCodeIndexNameMissing  = "ERR_102_INDEX_NAME_MISSING"
	ErrCodeIndexNotFound     = "ERR_103_INDEX_NOT_FOUND"
	ErrCodeDimensionMismatch = "ERR_104_DIMENSION_MISMATCH"
	ErrCodeChunkGeometry     = "ERR_105_CHUNK_GEOMETRY"
	ErrCodeModelMismatch     = "ERR_106_MODEL_MISMATCH"

	// Input errors (200-299)
	ErrCodeUpsertListUnreadable = "ERR_201_UPSERT_LIST_UNREADABLE"

	// IO errors (300-399)
	ErrCodeFileUnreadable = "ERR_301_FILE_UNREADABLE"
	ErrCodeFileTooLarge   = "ERR_302_FILE_TOO_LARGE"

	// Network errors (400-499)
	ErrCodeEmbedFailed      = "ERR_401_EMBED_FAILED"
	ErrCodeEmbedUnavailable = "ERR_402_EMBED_UNAVAILABLE"

	// Store errors (500-599)
	ErrCodeUpsertFailed = "ERR_501_UPSERT_FAILED"
	ErrCodeDeleteFailed = "ERR_502_DELETE_FAILED"
	ErrCodeStoreLocked  = "ERR_503_STORE_LOCKED"
	ErrCodeStoreCorrupt = "ERR_504_STORE_CORRUPT"

	// Internal errors (600-699)
	ErrCodeInternal = "ERR_601_INTERNAL"
)

// categoryFromCode derives the category from an error code prefix.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryInput
	case '3':
		return CategoryIO
	case '4':
		return CategoryNetwork
	case '5':
		return CategoryStore
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the default severity from an error code.
// Config and input errors abort the run; file, embedding, and store errors
// are contained to the file or batch that raised them.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig, CategoryInput:
		return SeverityFatal
	case CategoryIO:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code may be
// retried within the same run.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeEmbedFailed, ErrCodeUpsertFailed, ErrCodeDeleteFailed:
		return true
	}
	return false
}
