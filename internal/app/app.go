// Package app wires the dictionary registry to its storage, watcher and
// transports, and implements the daemon lifecycle.
package app

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/corey/acmatch/internal/adapters/bbolt"
	fsw "github.com/corey/acmatch/internal/adapters/fsnotify"
	"github.com/corey/acmatch/internal/adapters/socket"
	"github.com/corey/acmatch/internal/adapters/web"
	"github.com/corey/acmatch/internal/domain/automaton"
	"github.com/corey/acmatch/internal/domain/charcmp"
	"github.com/corey/acmatch/internal/ports"
)

// App is the daemon: a registry persisted in bbolt, served over the Unix
// socket and HTTP, and kept in sync with the dictionary manifest.
type App struct {
	ProjectRoot string
	Paths       *Paths

	Store     *bbolt.Store
	Registry  *Registry
	Watcher   *fsw.Watcher
	Server    *socket.Server
	WebServer *web.Server
	Log       *log.Logger

	mu           sync.Mutex             // serializes manifest syncs
	manifestPath string                 // path to dictionaries.yaml
	bindings     map[string]fileBinding // manifest entry name -> built dictionary
	workers      int                    // batch search parallelism
	httpPort     int                    // preferred HTTP port (0 = auto, <0 = disabled)
	started      time.Time              // daemon start time
}

var _ socket.Backend = (*App)(nil)

// Config holds initialization parameters for the App.
type Config struct {
	ProjectRoot  string
	DBPath       string      // path to bbolt file (default: .acmatch/acmatch.db)
	ManifestPath string      // dictionary manifest (default: .acmatch/dictionaries.yaml)
	HTTPPort     int         // preferred HTTP port (default: computed from project root; <0 disables HTTP)
	MaxEntries   int         // resident dictionary bound (default: manifest, then DefaultMaxEntries)
	Workers      int         // batch search workers (default: manifest, then GOMAXPROCS)
	Logger       *log.Logger // default: the standard logger
}

// New creates an App with all dependencies wired. Does not start services.
func New(cfg Config) (*App, error) {
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	paths := NewPaths(cfg.ProjectRoot)
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create %s: %w", paths.Root, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = paths.DB
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = paths.Manifest
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	manifest, err := LoadManifest(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = manifest.MaxEntries
	}
	if cfg.Workers == 0 {
		cfg.Workers = manifest.Workers
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	store, err := bbolt.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	watcher, err := fsw.NewWatcher()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	a := &App{
		ProjectRoot:  cfg.ProjectRoot,
		Paths:        paths,
		Store:        store,
		Registry:     NewRegistry(store, cfg.MaxEntries, cfg.Logger),
		Watcher:      watcher,
		Log:          cfg.Logger,
		manifestPath: cfg.ManifestPath,
		bindings:     make(map[string]fileBinding),
		workers:      cfg.Workers,
		httpPort:     cfg.HTTPPort,
	}
	a.Server = socket.NewServer(a, socket.SocketPath(cfg.ProjectRoot))
	a.WebServer = web.NewServer(a, paths.PortFile)
	return a, nil
}

// Start brings up the socket server, the HTTP API and the manifest watcher,
// and builds every manifest dictionary.
func (a *App) Start() error {
	a.started = time.Now()
	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	// HTTP API is non-fatal if the port is unavailable
	if a.httpPort >= 0 {
		httpPort := a.httpPort
		if httpPort == 0 {
			httpPort = web.DefaultPort(a.ProjectRoot)
		}
		if err := a.WebServer.Start(httpPort); err != nil {
			a.Log.Printf("[warning] HTTP API unavailable: %v", err)
		}
	}
	if err := a.SyncManifest(context.Background()); err != nil {
		a.Log.Printf("[warning] manifest: %v", err)
	}
	return nil
}

// Stop gracefully shuts down all services.
func (a *App) Stop() error {
	a.Watcher.Stop()
	a.WebServer.Stop()
	a.Server.Stop()
	a.Paths.CleanEphemeral()
	return a.Store.Close()
}

// Uptime returns how long the daemon has been running.
func (a *App) Uptime() time.Duration {
	return time.Since(a.started)
}

// Workers returns the batch search parallelism.
func (a *App) Workers() int {
	return a.workers
}

// Create builds and registers a dictionary from a word-list document.
func (a *App) Create(ctx context.Context, p socket.CreateParams) (socket.DictionaryInfo, error) {
	e, err := a.Registry.Create(ctx, Definition{
		Name:     p.Name,
		Document: p.Document,
		Format:   p.Format,
		Comparer: p.Comparer,
		Strategy: p.Strategy,
		Source:   p.Source,
	})
	if err != nil {
		return socket.DictionaryInfo{}, err
	}
	return socket.DictionaryInfo{Dictionary: e.Dictionary, Resident: true}, nil
}

// Delete removes a dictionary from memory and storage.
func (a *App) Delete(key string) (bool, error) {
	return a.Registry.Remove(key)
}

// Clear removes every dictionary.
func (a *App) Clear() (int, error) {
	return a.Registry.Clear()
}

// List returns every known dictionary sorted by name.
func (a *App) List() ([]socket.DictionaryInfo, error) {
	infos, err := a.Registry.List()
	if err != nil {
		return nil, err
	}
	out := make([]socket.DictionaryInfo, len(infos))
	for i, info := range infos {
		out[i] = socket.DictionaryInfo(info)
	}
	return out, nil
}

// Search runs one text through a registered dictionary.
func (a *App) Search(p socket.SearchParams) ([]ports.Match, error) {
	return a.Registry.Search(p.Key, p.Text, p.Bounded, p.Limit)
}

// SearchBatch runs several texts through a registered dictionary in parallel.
func (a *App) SearchBatch(ctx context.Context, p socket.BatchParams) ([][]ports.Match, error) {
	return a.Registry.SearchBatch(ctx, p.Key, p.Texts, p.Bounded, a.workers)
}

// Contains reports whether a registered dictionary matches anywhere in a text.
func (a *App) Contains(p socket.SearchParams) (bool, error) {
	return a.Registry.Contains(p.Key, p.Text, p.Bounded)
}

// Find compiles the given words, searches the text once and discards the
// automaton. Nothing is registered.
func (a *App) Find(p socket.FindParams) ([]ports.Match, error) {
	return FindOnce(p.Words, p.Comparer, p.Text, p.Bounded, p.Limit)
}

// FindOnce is the one-shot search behind Find and the CLI's find command.
func FindOnce(words []string, comparerSpec, text string, bounded bool, limit int) ([]ports.Match, error) {
	cmp, err := charcmp.Parse(comparerSpec)
	if err != nil {
		return nil, err
	}
	if !bounded && limit <= 0 {
		matches, err := automaton.Find(text, cmp, words...)
		if matches == nil && err == nil {
			matches = []ports.Match{}
		}
		return matches, err
	}
	am, err := automaton.New(cmp, words...)
	if err != nil {
		return nil, err
	}
	return collect(am, text, bounded, limit)
}
