// Package storage defines persistence interfaces for saved ordinances.
//
// Implementations live in subpackages: jsonfile keeps the whole grimoire in
// one JSON document and sqlite keeps one row per ordinance.
//
// Common error types:
//   - ErrNotFound: requested ordinance is missing
//   - ErrAlreadyExists: id or canonical key already stored
package storage
