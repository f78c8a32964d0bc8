package app

import (
	"os"
	"path/filepath"
)

// RootEnv overrides the project root the CLI and daemon resolve paths from.
const RootEnv = "ACMATCH_ROOT"

// Paths holds all resolved filesystem paths for the .acmatch/ project directory.
type Paths struct {
	Root     string // .acmatch/
	DB       string // .acmatch/acmatch.db
	Manifest string // .acmatch/dictionaries.yaml

	LogDir    string // .acmatch/log/
	DaemonLog string // .acmatch/log/daemon.log

	RunDir   string // .acmatch/run/
	PIDFile  string // .acmatch/run/daemon.pid
	PortFile string // .acmatch/run/http.port
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".acmatch")
	return &Paths{
		Root:     root,
		DB:       filepath.Join(root, "acmatch.db"),
		Manifest: filepath.Join(root, "dictionaries.yaml"),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir:   filepath.Join(root, "run"),
		PIDFile:  filepath.Join(root, "run", "daemon.pid"),
		PortFile: filepath.Join(root, "run", "http.port"),
	}
}

// ResolveRoot returns $ACMATCH_ROOT when set, otherwise the working directory.
func ResolveRoot() (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return filepath.Abs(root)
	}
	return os.Getwd()
}

// EnsureDirs creates all subdirectories under .acmatch/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanEphemeral removes ephemeral runtime files (PID file and port file).
// Called on clean daemon shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PIDFile)
	os.Remove(p.PortFile)
}
