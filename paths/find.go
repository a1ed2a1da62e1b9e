// Package paths locates game data files in conventional places so the
// tools work out of the box when run next to a server checkout.
package paths

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// possibleDirs returns the directories Find probes, in order: the
// working directory's data/ subdirectory, the working directory itself,
// $MAPPER_DATA if set, and the directory holding the running binary.
func possibleDirs() []string {
	dirs := []string{"data", "."}
	if env := os.Getenv("MAPPER_DATA"); env != "" {
		dirs = append(dirs, env)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// Find locates the passed datafile shortname and returns a path to open
// it at, or an empty string when no candidate location has it.
//
// For example, for "objects.srv" it may return "data/objects.srv".
func Find(fileName string) string {
	for _, dir := range possibleDirs() {
		path := filepath.Join(dir, fileName)
		if f, err := os.Open(path); err == nil {
			f.Close()
			glog.Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	return ""
}

// Open locates the passed file in the same locations that Find would
// look, and opens it. Falls back to opening fileName directly so
// absolute paths keep working.
func Open(fileName string) (*os.File, error) {
	if path := Find(fileName); path != "" {
		return os.Open(path)
	}
	return os.Open(fileName)
}
