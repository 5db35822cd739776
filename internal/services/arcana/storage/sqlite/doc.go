// Package sqlite implements ordinance storage on SQLite (modernc.org/sqlite).
//
// Numen ids and modifier selections are stored as JSON columns since they
// are only read back whole. Canonical key uniqueness is a table constraint.
package sqlite
