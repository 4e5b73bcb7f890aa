package realm

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/ctxlog"
	"github.com/specialistvlad/cardc/internal/fsutil"
)

// ManifestName is the file marking a card directory.
const ManifestName = "card.json"

// LoadDir reads every card under root of fsys into the realm.
func (m *Memory) LoadDir(ctx context.Context, fsys fs.FS, root string) (int, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading realm from directory.", "realm", m.url, "path", root)

	manifests, err := fsutil.FindFilesNamed(fsys, root, ManifestName)
	if err != nil {
		return 0, fmt.Errorf("find card manifests in %s: %w", root, err)
	}
	if len(manifests) == 0 {
		logger.Warn("No cards found in directory.", "path", root)
		return 0, nil
	}

	cardDirs := make(map[string]bool, len(manifests))
	for _, p := range manifests {
		cardDirs[path.Dir(p)] = true
	}

	for _, manifest := range manifests {
		dir := path.Dir(manifest)
		raw, err := loadCard(fsys, dir, func(sub string) bool { return cardDirs[sub] })
		if err != nil {
			return 0, fmt.Errorf("load card %s: %w", dir, err)
		}
		raw.URL = m.url + cardName(root, dir)
		if err := m.Put(raw); err != nil {
			return 0, err
		}
		logger.Debug("Loaded card.", "card", raw.URL, "files", len(raw.Files))
	}

	logger.Info("Realm loaded.", "realm", m.url, "cards", len(manifests))
	return len(manifests), nil
}

// cardName is dir relative to root. A manifest at the root itself names the
// "index" card.
func cardName(root, dir string) string {
	name := dir
	if root != "." && root != "" {
		name = strings.TrimPrefix(strings.TrimPrefix(dir, root), "/")
	}
	if name == "" || name == "." {
		return "index"
	}
	return name
}

func loadCard(fsys fs.FS, dir string, isCardDir func(string) bool) (*card.RawCard, error) {
	manifest, err := fs.ReadFile(fsys, path.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var raw card.RawCard
	if err := json.Unmarshal(manifest, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestName, err)
	}
	if len(raw.Files) > 0 {
		return nil, fmt.Errorf("%s must not list files; they are read from the directory", ManifestName)
	}

	paths, err := fsutil.ListFiles(fsys, dir, isCardDir)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if p == ManifestName {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, p))
		if err != nil {
			return nil, err
		}
		raw.Files = append(raw.Files, card.File{Path: p, Content: string(content)})
	}
	return &raw, nil
}
