// Package export renders normalized records to xlsx workbooks with excelize.
//
// Each entry produces two workbooks in its comments directory: <folder>.xlsx
// holding the ranked subset and <folder>_all.xlsx holding every record.
// Workbooks are encoded in memory and committed through a .part file so a
// reader never observes a half-written workbook.
package export
