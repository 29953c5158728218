package export

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"reelharvest/internal/fileutil"
	"reelharvest/internal/normalize"
)

const (
	// SheetName is the title of the single worksheet in every workbook.
	SheetName = "TikTok Comments"
	// AllSuffix is appended to the folder name for the full-set workbook.
	AllSuffix = "_all"

	maxColumnWidth = 50
	columnPadding  = 2
)

// Headers lists the worksheet columns in order.
var Headers = []string{
	"Text",
	"Created At",
	"Like Count",
	"Reply Count",
	"Is Author Liked",
	"Username",
	"Display Name",
	"Bio",
	"Avatar URL",
	"Avatar Local Path",
	"Engagement Score",
}

// Paths returns the ranked and full-set workbook paths for folder inside dir.
func Paths(dir, folder string) (ranked, all string) {
	return filepath.Join(dir, folder+".xlsx"), filepath.Join(dir, folder+AllSuffix+".xlsx")
}

// XLSX writes records as xlsx workbooks.
type XLSX struct{}

// Write renders records to path, replacing any existing file.
func (XLSX) Write(records []normalize.Record, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export: name sheet: %w", err)
	}

	widths := make([]int, len(Headers))
	setRow := func(row int, values []any) error {
		for i, value := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return err
			}
			if n := displayLength(value); n > widths[i] {
				widths[i] = n
			}
		}
		return nil
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := setRow(1, header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	for i, record := range records {
		if err := setRow(i+2, rowValues(record)); err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}

	if err := applyWidths(f, widths); err != nil {
		return fmt.Errorf("export: column widths: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("export: encode workbook: %w", err)
	}
	if _, err := fileutil.WriteStream(path, buf, 0); err != nil {
		return fmt.Errorf("export: write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func rowValues(record normalize.Record) []any {
	var username, displayName, bio, avatarURL string
	if author := record.Author; author != nil {
		username = author.Username
		displayName = author.DisplayName
		bio = author.Bio
		avatarURL = author.AvatarLocator
	}
	liked := "No"
	if record.AuthorLiked {
		liked = "Yes"
	}
	return []any{
		record.Text,
		record.CreatedAt,
		record.LikeCount,
		record.ReplyCount,
		liked,
		username,
		displayName,
		bio,
		avatarURL,
		record.AvatarPath,
		record.EngagementScore,
	}
}

// displayLength approximates the rendered width of a cell. Empty strings and
// zero values do not widen a column.
func displayLength(value any) int {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case int64:
		if v == 0 {
			return 0
		}
		return len(fmt.Sprint(v))
	case float64:
		if v == 0 {
			return 0
		}
		return len(fmt.Sprint(v))
	default:
		return len(fmt.Sprint(v))
	}
}

func applyWidths(f *excelize.File, widths []int) error {
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, ColumnWidth(width)); err != nil {
			return err
		}
	}
	return nil
}

// ColumnWidth pads the longest cell length and caps the result.
func ColumnWidth(longest int) float64 {
	return float64(min(longest+columnPadding, maxColumnWidth))
}
