// Package errors provides the classified error primitives used across twbuilder.
//
// Key features:
//   - ErrorCategory: broad classification (config, validation, filesystem, transform, task, server, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether repeating the operation may help
//   - ClassifiedError: structured error with category, severity and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing messages for the command line
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryFileSystem, "read shadow meta file").
//		WithContext("path", relPath).
//		WithCause(readErr).
//		Build()
package errors
