package s3put

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// ResolvedFile is one file produced by resolving a specifier.
type ResolvedFile struct {
	// Path is the path exactly as produced by resolution: pattern matches are
	// bare entry names, directory children are joined to their directory.
	// It is used for the object key, the output and public files matching.
	Path string
	// LocalPath is where the file is read from, Path relative to the
	// resolver working directory.
	LocalPath string
}

// PathResolver expands specifiers into files.
type PathResolver struct {
	// WorkDir is the directory patterns are matched in and relative paths
	// are resolved against, default = ".".
	WorkDir string
}

// Resolve lazily expands specifier, depth first:
//   - a specifier containing `*.` is a comma-separated list of patterns;
//     for each pattern in order, every entry of WorkDir whose name matches
//     is resolved in listing order, so an entry matching two patterns is
//     produced twice;
//   - a directory (symbolic links are not followed) resolves each of its
//     children in listing order;
//   - anything else is produced as is, without checking it exists.
//
// A directory that cannot be listed produces a *FilesystemError and ends the
// sequence.
func (r PathResolver) Resolve(specifier string) iter.Seq2[ResolvedFile, error] {
	return func(yield func(ResolvedFile, error) bool) {
		r.resolve(specifier, yield)
	}
}

// resolve returns false once yield asked to stop or an error was produced.
func (r PathResolver) resolve(specifier string, yield func(ResolvedFile, error) bool) bool {
	if isPatternSpecifier(specifier) {
		entries, err := os.ReadDir(r.workDir())
		if err != nil {
			yield(ResolvedFile{}, newFilesystemError("readdir", r.workDir(), err))
			return false
		}
		for _, pattern := range parsePatterns(specifier) {
			for _, entry := range entries {
				if !pattern.Match(entry.Name()) {
					continue
				}
				if !r.resolve(entry.Name(), yield) {
					return false
				}
			}
		}
		return true
	}

	localPath := r.localPath(specifier)
	if fi, err := os.Lstat(localPath); err == nil && fi.IsDir() {
		return r.resolveDir(specifier, localPath, yield)
	}
	return yield(ResolvedFile{Path: specifier, LocalPath: localPath}, nil)
}

func (r PathResolver) resolveDir(dir, localDir string, yield func(ResolvedFile, error) bool) bool {
	var entries []fs.DirEntry
	var err error
	if entries, err = os.ReadDir(localDir); err != nil {
		yield(ResolvedFile{}, newFilesystemError("readdir", dir, err))
		return false
	}
	for _, entry := range entries {
		if !r.resolve(filepath.Join(dir, entry.Name()), yield) {
			return false
		}
	}
	return true
}

func (r PathResolver) workDir() string {
	if r.WorkDir == "" {
		return "."
	}
	return r.WorkDir
}

func (r PathResolver) localPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.workDir(), path)
}
