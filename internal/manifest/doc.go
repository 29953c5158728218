// Package manifest discovers manifest files under a root directory and turns
// them into an ordered list of harvest entries.
//
// A manifest is a JSON or YAML list of objects. Each object names a post by
// usn_time (the unit ID), postPage (the locator to harvest) and eat_name (a
// display label). Files are visited in lexical path order and entries keep
// their order within a file. Entries without a locator are skipped.
//
// A reference list (xlsx column, JSON or YAML) can restrict a batch to known
// unit IDs. Matching is exact: no case folding or whitespace trimming is
// applied to either side.
package manifest
