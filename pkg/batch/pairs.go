package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoSources is returned when the arguments name no usable source.
var ErrNoSources = errors.New("at least one valid source file or directory must be specified")

// Plan is the set of pairs described by command-line style arguments.
type Plan struct {
	Pairs   []Pair
	InPlace bool     // sources are overwritten
	Skipped []string // named sources that are not regular files
}

// ResolvePairs turns a list of paths into source/destination pairs:
//
//	srcdir destdir        every file of srcdir copied into destdir
//	src... destdir        each src copied into destdir
//	file newfile          file copied to newfile, which must not exist yet
//	dir                   every file of dir scrubbed in place
//	file...               each file scrubbed in place
func ResolvePairs(args []string) (*Plan, error) {
	plan := &Plan{}

	switch {
	case len(args) > 1 && isDir(args[len(args)-1]):
		dest := args[len(args)-1]
		sources := args[:len(args)-1]
		if len(sources) == 1 && isDir(sources[0]) {
			files, err := dirFiles(sources[0])
			if err != nil {
				return nil, err
			}
			for _, src := range files {
				plan.Pairs = append(plan.Pairs, Pair{Source: src, Destination: filepath.Join(dest, filepath.Base(src))})
			}
			break
		}
		for _, src := range sources {
			if !isFile(src) {
				plan.Skipped = append(plan.Skipped, src)
				continue
			}
			plan.Pairs = append(plan.Pairs, Pair{Source: src, Destination: filepath.Join(dest, filepath.Base(src))})
		}

	case len(args) == 2 && isFile(args[0]) && !exists(args[1]):
		plan.Pairs = []Pair{{Source: args[0], Destination: args[1]}}

	case len(args) == 1 && isDir(args[0]):
		files, err := dirFiles(args[0])
		if err != nil {
			return nil, err
		}
		for _, src := range files {
			plan.Pairs = append(plan.Pairs, Pair{Source: src, Destination: src})
		}
		plan.InPlace = true

	default:
		for _, src := range args {
			plan.Pairs = append(plan.Pairs, Pair{Source: src, Destination: src})
		}
		plan.InPlace = true
	}

	if len(plan.Pairs) == 0 {
		return nil, ErrNoSources
	}
	return plan, nil
}

// ExpandSources returns one pair per named file and per regular file
// inside each named directory. Destinations are left empty.
func ExpandSources(args []string) ([]Pair, error) {
	var pairs []Pair
	for _, arg := range args {
		if !isDir(arg) {
			pairs = append(pairs, Pair{Source: arg})
			continue
		}
		files, err := dirFiles(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			pairs = append(pairs, Pair{Source: f})
		}
	}
	if len(pairs) == 0 {
		return nil, ErrNoSources
	}
	return pairs, nil
}

// dirFiles lists the regular files directly inside dir, sorted by name.
func dirFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if isFile(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
