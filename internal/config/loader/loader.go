// Package loader reads configuration sources into generic maps.
//
// Sources are a TOML file and CUTLINE_-prefixed environment variables.
// Each loader returns a nested map[string]any; callers layer them with
// DeepMerge and decode the result into typed settings.
package loader

import (
	"io/fs"
	"os"
)

// Loader is the interface for configuration sources.
type Loader interface {
	// Load reads the source. It returns nil, nil if the source does not exist.
	Load() (map[string]any, error)
}

// FileSystem is the file access the TOML loader needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem on the real file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return OSFS{}
}
