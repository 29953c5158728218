// Package layout creates the per-entry folder skeleton the harvest writes into.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"reelharvest/internal/config"
	"reelharvest/internal/services"
)

// Dirs holds the resolved directories of one entry.
type Dirs struct {
	Root     string
	Comments string
	Avatars  string
	Filtered string
	Video    string
	Cover    string
	Frames   string
	Final    string
}

// All returns every directory, parents first.
func (d Dirs) All() []string {
	return []string{d.Root, d.Comments, d.Avatars, d.Filtered, d.Video, d.Cover, d.Frames, d.Final}
}

// Resolve computes the entry directories under root without touching disk.
func Resolve(root string, names config.Layout) Dirs {
	comments := filepath.Join(root, names.CommentsDir)
	return Dirs{
		Root:     root,
		Comments: comments,
		Avatars:  filepath.Join(comments, names.AvatarDir),
		Filtered: filepath.Join(comments, names.FilteredDir),
		Video:    filepath.Join(root, names.VideoDir),
		Cover:    filepath.Join(root, names.CoverDir),
		Frames:   filepath.Join(root, names.FramesDir),
		Final:    filepath.Join(root, names.FinalDir),
	}
}

// Bootstrap creates the skeleton under root. Existing directories are left
// untouched, so calling it again is harmless.
func Bootstrap(root string, names config.Layout) (Dirs, error) {
	if root == "" {
		return Dirs{}, services.Wrap(services.ErrValidation, "layout", "bootstrap", "entry directory is empty", nil)
	}
	dirs := Resolve(root, names)
	for _, dir := range dirs.All() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Dirs{}, fmt.Errorf("layout: create %s: %w", dir, err)
		}
	}
	return dirs, nil
}
