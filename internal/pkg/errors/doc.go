// Package errors provides application error types for the analytics pipeline.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for the pipeline error taxonomy
//   - Error type checking helpers
//
// # Error Types
//
//   - Data: missing file, schema mismatch, empty or too-small dataset
//   - Tool: unsupported method or internal tool failure
//   - InsufficientData: dataset too small for the requested statistic
//   - UnsupportedMethod: unknown anomaly detection method
//   - RateLimited: outbound quota reached (resolved by waiting, not failing)
//   - Backend: external generative backend failure
//   - ContextType: merge called on a non-mapping shared context value
//
// # Usage
//
// Create errors using constructor functions:
//
//	return apperrors.Data("file not found")
//	return apperrors.UnsupportedMethod(method)
//
// Check error types:
//
//	if apperrors.IsInsufficientData(err) {
//	    // Handle small datasets
//	}
//
// # Error Wrapping
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("detection failed: %w", apperrors.InsufficientData("need 3 samples"))
package errors
