package executor

import (
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/afero"
	"github.com/treesh/treesh/commands"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

// maxSuggestDistance bounds the edit distance of "did you mean" suggestions.
const maxSuggestDistance = 2

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

// LookPath searches for an executable named file in the directories named by
// path. If file contains a slash, it is tried directly and path is not
// consulted. The result may be an absolute path or a path relative to the
// current directory.
func LookPath(fsys afero.Fs, path, file string) (string, error) {
	if strings.Contains(file, "/") {
		err := findExecutable(fsys, file)
		if err == nil {
			return file, nil
		}
		return "", err
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(fsys, path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Suggest returns the built-in or program on path whose name is closest to
// name, or "" if nothing is close enough.
func Suggest(fsys afero.Fs, path, name string) string {
	if strings.Contains(name, "/") {
		return ""
	}

	candidates := commands.BuiltinNames()
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		entries, err := afero.ReadDir(fsys, dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if m := entry.Mode(); !m.IsDir() && m&0111 != 0 {
				candidates = append(candidates, entry.Name())
			}
		}
	}

	best, bestDistance := "", maxSuggestDistance+1
	for _, candidate := range candidates {
		distance := fuzzy.LevenshteinDistance(name, candidate)
		if distance == 0 || distance >= len(name) {
			continue
		}
		if distance < bestDistance || (distance == bestDistance && candidate < best) {
			best, bestDistance = candidate, distance
		}
	}
	return best
}
