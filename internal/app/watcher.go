package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/corey/acmatch/internal/adapters/wordlist"
)

// fileBinding ties a manifest entry to the dictionary built from its file.
type fileBinding struct {
	entry ManifestEntry
	path  string // absolute word-list path
	key   string // "" while the file is missing or invalid
}

// SyncManifest reloads the manifest, builds every entry and drops the
// dictionaries of entries that were removed or whose file changed. Entries
// that fail to build are logged and skipped. The watcher is pointed at the
// manifest and every word-list file it names.
func (a *App) SyncManifest(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := LoadManifest(a.manifestPath)
	if err != nil {
		// Keep serving the last good manifest.
		a.watch()
		return err
	}

	next := make(map[string]fileBinding, len(m.Dictionaries))
	for _, e := range m.Dictionaries {
		b := fileBinding{entry: e, path: e.ResolveFile(a.ProjectRoot)}
		b.key, err = a.buildBinding(ctx, b)
		if err != nil {
			a.Log.Printf("[manifest] %s: %v", e.Name, err)
		}
		next[e.Name] = b
	}

	for name, old := range a.bindings {
		if nb, ok := next[name]; !ok || nb.key != old.key {
			a.dropKey(old.key, next)
		}
	}
	a.bindings = next
	a.watch()
	a.Log.Printf("[manifest] %d dictionaries from %s", len(next), a.manifestPath)
	return nil
}

// onFileChanged handles a create/modify/delete event from the watcher.
// A manifest change reloads everything; a word-list change rebuilds the
// entries that use the file.
func (a *App) onFileChanged(absPath string) {
	if absPath == a.manifestPath {
		if err := a.SyncManifest(context.Background()); err != nil {
			a.Log.Printf("[manifest] reload: %v", err)
		}
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for name, b := range a.bindings {
		if b.path != absPath {
			continue
		}
		key, err := a.buildBinding(context.Background(), b)
		if err != nil {
			a.Log.Printf("[manifest] %s: %v", name, err)
		}
		if key == b.key {
			continue
		}
		old := b.key
		b.key = key
		a.bindings[name] = b
		a.dropKey(old, a.bindings)
		a.Log.Printf("[manifest] %s rebuilt from %s", name, filepath.Base(absPath))
	}
}

// buildBinding creates the dictionary for an entry's current file contents.
func (a *App) buildBinding(ctx context.Context, b fileBinding) (string, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("word list %s does not exist", b.path)
	}
	if err != nil {
		return "", fmt.Errorf("read word list: %w", err)
	}
	e, err := a.Registry.Create(ctx, Definition{
		Name:     b.entry.Name,
		Document: string(data),
		Format:   wordlist.ParserFor(b.path).Format(),
		Comparer: b.entry.Comparer,
		Strategy: b.entry.Strategy,
		Source:   b.path,
	})
	if err != nil {
		return "", err
	}
	return e.Dictionary.Key, nil
}

// dropKey removes a dictionary unless another binding still uses it.
func (a *App) dropKey(key string, bindings map[string]fileBinding) {
	if key == "" {
		return
	}
	for _, b := range bindings {
		if b.key == key {
			return
		}
	}
	if _, err := a.Registry.Remove(key); err != nil {
		a.Log.Printf("[manifest] remove %s: %v", shortKey(key), err)
	}
}

// watch points the watcher at the manifest and the bound word-list files.
// Caller must hold a.mu.
func (a *App) watch() {
	paths := []string{a.manifestPath}
	for _, b := range a.bindings {
		paths = append(paths, b.path)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)
	if err := a.Watcher.Watch(paths, a.onFileChanged); err != nil {
		a.Log.Printf("[warning] file watcher unavailable: %v", err)
	}
}

// ManifestKeys returns the dictionary key of every manifest entry by name.
// Entries whose file is missing or invalid map to "".
func (a *App) ManifestKeys() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make(map[string]string, len(a.bindings))
	for name, b := range a.bindings {
		keys[name] = b.key
	}
	return keys
}
