package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"reelharvest/internal/logging"
	"reelharvest/internal/services"
	"reelharvest/internal/textutil"
)

const defaultFolderLimit = 50

// Options controls discovery and destination resolution.
type Options struct {
	// Patterns are base-name globs such as "*_processed.json".
	Patterns []string
	// OutputRoot, when set, holds every entry folder. Otherwise entry folders
	// are created next to their manifest file.
	OutputRoot string
	// FolderLimit caps the entry folder name length.
	FolderLimit int
}

// Discover returns manifest files under root whose base name matches any
// pattern, sorted by path.
func Discover(root string, patterns []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "discover", root, err)
	}
	if !info.IsDir() {
		if matchesAny(filepath.Base(root), patterns) {
			return []string{root}, nil
		}
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "discover", root+" is not a directory or manifest", nil)
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !matchesAny(d.Name(), patterns) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Skipped is a manifest item, or a whole manifest file, that could not
// become an entry.
type Skipped struct {
	Source string
	// Index is the 1-based item position, or 0 when the file itself was
	// unreadable.
	Index  int
	Reason string
}

// Batch is what Load found under a root.
type Batch struct {
	Entries []Entry
	Skipped []Skipped
}

// ReadFile decodes one manifest file. JSON and YAML are chosen by extension.
// Items that are not objects are returned as Skipped; the error covers only
// a file that cannot be read or decoded as a list.
func ReadFile(path string) ([]Entry, []Skipped, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	items, err := decodeList(path, data)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrSchema, "manifest", "decode", filepath.Base(path), err)
	}
	entries := make([]Entry, 0, len(items))
	var skipped []Skipped
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			skipped = append(skipped, Skipped{Source: path, Index: i + 1, Reason: "item is not an object"})
			continue
		}
		entry := entryFromMap(fields)
		entry.Source = path
		entry.Index = i + 1
		entries = append(entries, entry)
	}
	return entries, skipped, nil
}

func decodeList(path string, data []byte) ([]any, error) {
	var items []any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, err
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Load discovers every manifest under root and returns its entries in order,
// with Folder and Destination resolved. Unreadable files, non-object items
// and entries without a locator are logged and reported in Batch.Skipped;
// the remaining files still load. Entries that would share a destination get
// the lowest free numeric suffix. Only a root that cannot be walked fails.
func Load(root string, opts Options, logger *slog.Logger) (Batch, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	files, err := Discover(root, opts.Patterns)
	if err != nil {
		return Batch{}, err
	}
	limit := opts.FolderLimit
	if limit <= 0 {
		limit = defaultFolderLimit
	}

	var batch Batch
	skip := func(item Skipped, impact string) {
		batch.Skipped = append(batch.Skipped, item)
		logging.WarnWithContext(logger, "manifest item skipped", "manifest_entry_skipped",
			logging.String("manifest", item.Source),
			logging.Int("index", item.Index),
			logging.String("reason", item.Reason),
			logging.String(logging.FieldImpact, impact),
		)
	}
	used := make(map[string]bool)
	for _, file := range files {
		entries, rejected, err := ReadFile(file)
		if err != nil {
			skip(Skipped{Source: file, Reason: err.Error()}, "manifest file not harvested")
			continue
		}
		for _, item := range rejected {
			skip(item, "item not harvested")
		}
		for _, entry := range entries {
			if entry.Locator == "" {
				skip(Skipped{Source: file, Index: entry.Index, Reason: "no locator for " + entry.Name()}, "entry not harvested")
				continue
			}
			base := opts.OutputRoot
			if base == "" {
				base = filepath.Dir(file)
			}
			entry.Folder = FolderFor(entry, limit)
			if used[filepath.Join(base, entry.Folder)] {
				entry.Folder = freeSuffix(base, entry.Folder, used)
				logging.WarnWithContext(logger, "duplicate entry folder; adding suffix", "manifest_folder_collision",
					logging.String("manifest", file),
					logging.String("folder", entry.Folder),
					logging.String(logging.FieldErrorHint, "give entries distinct usn_time values"),
					logging.String(logging.FieldImpact, "entry written to a suffixed folder"),
				)
			}
			entry.Destination = filepath.Join(base, entry.Folder)
			used[entry.Destination] = true
			batch.Entries = append(batch.Entries, entry)
		}
	}
	return batch, nil
}

func freeSuffix(base, folder string, used map[string]bool) string {
	for n := 2; ; n++ {
		candidate := folder + "_" + strconv.Itoa(n)
		if !used[filepath.Join(base, candidate)] {
			return candidate
		}
	}
}

// FolderFor derives the entry folder name from the unit ID, falling back to
// the label and then the entry position.
func FolderFor(entry Entry, limit int) string {
	if name := textutil.FolderName(entry.UnitID, limit); name != "" {
		return name
	}
	if name := textutil.FolderName(entry.Label, limit); name != "" {
		return name
	}
	return "item_" + strconv.Itoa(entry.Index)
}
