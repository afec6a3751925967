// Package ir provides the fact model shared by every factstore package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Facts are immutable once written; mutation is a new fact
//   - Value and NumericValue are both always present, Type selects which one is meaningful
//   - Timestamps are second-resolution, lexically sortable strings (TimestampLayout)
//   - Ordinal is assigned by the drive on insert and is 0 before that
package ir
