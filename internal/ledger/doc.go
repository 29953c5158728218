// Package ledger persists harvest run history in SQLite.
//
// Each batch run is one row in runs; every entry it attempted is one row in
// entry_outcomes. The ledger is an observer: the harvest Summary stays the
// source of truth, and ledger write failures never fail an entry. Schema
// changes ship as numbered files under migrations/ and are applied in order
// when the store opens.
package ledger
