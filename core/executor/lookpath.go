package executor

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

// hostFs is where programs are looked up; they always live on the host.
var hostFs = afero.NewOsFs()

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// lookPath searches for an executable named file in the directories named by
// pathEnv. If file contains a slash, it is tried directly and the PATH is not
// consulted. Relative results are resolved against dir, so the returned path
// is always absolute.
//
// A match that exists but cannot be executed yields fs.ErrPermission when no
// later directory holds an executable of the same name.
func lookPath(fsys afero.Fs, dir, pathEnv, file string) (string, error) {
	if strings.Contains(file, "/") {
		path := resolvePath(dir, file)
		if err := findExecutable(fsys, path); err != nil {
			return "", err
		}
		return path, nil
	}

	denied := false
	for _, elem := range filepath.SplitList(pathEnv) {
		if elem == "" {
			// Unix shell semantics: path element "" means "."
			elem = "."
		}
		path := resolvePath(dir, filepath.Join(elem, file))
		err := findExecutable(fsys, path)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, fs.ErrPermission) && !isDir(fsys, path) {
			denied = true
		}
	}
	if denied {
		return "", fs.ErrPermission
	}
	return "", ErrNotFound
}

func isDir(fsys afero.Fs, path string) bool {
	ok, err := afero.IsDir(fsys, path)
	return err == nil && ok
}

// resolvePath makes path absolute relative to dir.
func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// spawnStatus maps a lookup or start failure to the shell exit status.
func spawnStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return StatusNotFound
	default:
		return StatusNotExecutable
	}
}

// spawnMessage describes a lookup or start failure for the console.
func spawnMessage(name string, err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return name + ": command not found"
	case errors.Is(err, fs.ErrNotExist):
		return name + ": no such file or directory"
	case errors.Is(err, fs.ErrPermission):
		return name + ": permission denied"
	default:
		return name + ": " + err.Error()
	}
}
