// Package errors provides the classified error primitives used across venuestatus.
//
// Every error that crosses a package boundary is a ClassifiedError carrying a
// category (auth, not_found, validation, persistence, delivery, ...), a severity,
// a retry strategy and structured context. Callers build them with the fluent
// ErrorBuilder:
//
//	err := errors.NotFoundError("venue not found").
//		WithContext("venue_id", id).
//		Build()
//
// Two ClassifiedErrors compare equal under errors.Is when category and message
// match, so package-level sentinels keep working after context is attached.
package errors
