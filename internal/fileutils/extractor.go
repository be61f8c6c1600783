package fileutils

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrEmptyFilePath = errors.New("file path is required")

// ExtractFileParts extracts the prefix, file name, and extension from the path
// in the format <prefix_path>/<file_name>.<ext>. The extension is empty when
// the base name has none.
func ExtractFileParts(filePath string) (prefix, fileName, fileExt string, err error) {
	if filePath == "" {
		err = ErrEmptyFilePath
		return
	}
	base := filepath.Base(filePath)
	fileExt = strings.TrimPrefix(filepath.Ext(base), ".")
	fileName = strings.TrimSuffix(base, filepath.Ext(base))
	if dir := filepath.Dir(filePath); dir != "." {
		prefix = dir
	}
	return
}

// NormalizeKey builds an object key from a local path: the path is cleaned,
// separators become forward slashes and keyPrefix is prepended verbatim.
func NormalizeKey(keyPrefix, filePath string) string {
	return keyPrefix + filepath.ToSlash(filepath.Clean(filePath))
}
