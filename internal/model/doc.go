// Package model defines the records persisted by karmapos.
//
// This package contains type definitions and small value helpers only. It
// imports nothing internal, so every other package can depend on it.
//
// Key constraints:
//   - Item and Invoice ids are int64 and assigned by the sequencer
//   - Invoice.Date is always stored as RFC 3339 in UTC
//   - JSON tags use the camelCase names of the backup file format
package model
