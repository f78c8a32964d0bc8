package ports

// Watcher monitors dictionary sources (the manifest and the word-list files it
// references) and triggers rebuilds. The adapter filters out editor swap files
// and other noise before invoking onChange. Calling Watch again replaces the
// watched file set.
type Watcher interface {
	// Watch starts monitoring the given files. Their parent directories are
	// watched so that editors replacing a file via rename are still seen.
	// onChange is called with the absolute path of each changed file and may
	// be invoked from any goroutine. Returns an error if a directory cannot be
	// watched.
	Watch(paths []string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
