package manifest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Entry is one unit of harvest work.
type Entry struct {
	// UnitID is the opaque identifier from the manifest (usn_time).
	UnitID string
	// Locator is the URL of the post to harvest (postPage).
	Locator string
	// Label is the display name (eat_name).
	Label string
	// Source is the manifest file the entry came from.
	Source string
	// Index is the 1-based position of the entry inside Source.
	Index int
	// Folder is the sanitized directory name of the entry.
	Folder string
	// Destination is the entry directory. The layout creates its skeleton.
	Destination string
}

// Name returns the best human identifier for logs.
func (e Entry) Name() string {
	switch {
	case e.UnitID != "":
		return e.UnitID
	case e.Label != "":
		return e.Label
	default:
		return e.Folder
	}
}

var (
	unitIDKeys  = []string{"usn_time", "unit_id", "id"}
	locatorKeys = []string{"postPage", "post_page", "url", "locator"}
	labelKeys   = []string{"eat_name", "label", "name", "title"}
)

func entryFromMap(fields map[string]any) Entry {
	return Entry{
		UnitID:  firstString(fields, unitIDKeys),
		Locator: strings.TrimSpace(firstString(fields, locatorKeys)),
		Label:   firstString(fields, labelKeys),
	}
}

func firstString(fields map[string]any, keys []string) string {
	for _, key := range keys {
		if value, ok := scalarString(fields[key]); ok && value != "" {
			return value
		}
	}
	return ""
}

// scalarString renders scalar manifest values as text. Spreadsheet exports
// sometimes store IDs as numbers, so integral floats print without a
// fractional part.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), false
	}
}
