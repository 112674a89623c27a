package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *Error {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *Error {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *Error {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Source tree errors

func MissingSource(path string) *Error {
	return New(CategorySource, SeverityFatal, "source path does not exist").
		WithContext("path", path)
}

func ParseFailed(path string, cause error) *Error {
	return Wrap(cause, CategoryParse, SeverityFatal, "failed to parse file").
		WithContext("path", path)
}

func CompileFailed(path string, cause error) *Error {
	return Wrap(cause, CategoryCompile, SeverityFatal, "failed to compile file").
		WithContext("path", path)
}

func OutputCollision(output, first, second string) *Error {
	return New(CategoryValidation, SeverityFatal, "two sources write the same output path").
		WithContext("output", output).
		WithContext("first", first).
		WithContext("second", second)
}

// Build pipeline errors

func TransformFailed(transform, outputPath string, cause error) *Error {
	return Wrap(cause, CategoryTransform, SeverityFatal, "transform failed").
		WithContext("transform", transform).
		WithContext("output", outputPath)
}

func FileSystemError(operation, path string, cause error) *Error {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *Error {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
