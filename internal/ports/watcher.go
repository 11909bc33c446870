package ports

// Watcher monitors the files the percept dictionary is built from (the
// alternate-name table, the embedded store) and reports changes so the app can
// rebuild. Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring the given files. onChange is called with the
	// absolute path of each changed file, debounced. The callback may be
	// invoked from any goroutine. Returns an error if a parent directory
	// doesn't exist or permissions are insufficient.
	Watch(paths []string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
