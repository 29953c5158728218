package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"reelharvest/internal/services"
)

// Reference is a set of unit IDs that a batch is restricted to.
type Reference map[string]struct{}

// Contains reports whether id is in the set, by exact comparison.
func (r Reference) Contains(id string) bool {
	_, ok := r[id]
	return ok
}

// LoadReference reads unit IDs from an xlsx workbook (the column whose header
// equals column on the first sheet), or from a JSON or YAML list holding
// either strings or objects keyed by column.
func LoadReference(path, column string) (Reference, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return referenceFromWorkbook(path, column)
	case ".json", ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "manifest", "reference", path, err)
		}
		items, err := decodeList(path, data)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "manifest", "reference", "decode "+filepath.Base(path), err)
		}
		return referenceFromList(items, column), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "reference",
			fmt.Sprintf("unsupported reference file type %q", filepath.Ext(path)), nil)
	}
}

func referenceFromWorkbook(path, column string) (Reference, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "reference", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "reference", "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "reference", "read rows", err)
	}
	if len(rows) == 0 {
		return Reference{}, nil
	}
	col := -1
	for i, header := range rows[0] {
		if header == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "reference",
			fmt.Sprintf("column %q not found in %s", column, filepath.Base(path)), nil)
	}
	ref := Reference{}
	for _, row := range rows[1:] {
		if col < len(row) && row[col] != "" {
			ref[row[col]] = struct{}{}
		}
	}
	return ref, nil
}

func referenceFromList(items []any, column string) Reference {
	ref := Reference{}
	for _, item := range items {
		var value string
		var ok bool
		if fields, isMap := item.(map[string]any); isMap {
			value, ok = scalarString(fields[column])
		} else {
			value, ok = scalarString(item)
		}
		if ok && value != "" {
			ref[value] = struct{}{}
		}
	}
	return ref
}

// FilterByReference splits entries into those whose UnitID is in ref and
// the rest, preserving order in both.
func FilterByReference(entries []Entry, ref Reference) (kept, dropped []Entry) {
	for _, entry := range entries {
		if entry.UnitID != "" && ref.Contains(entry.UnitID) {
			kept = append(kept, entry)
			continue
		}
		dropped = append(dropped, entry)
	}
	return kept, dropped
}
