package xferfile

import (
	"os"
	"time"

	"github.com/derektruong/s3put/internal/fileutils"
)

// Info describes a local file picked up for upload.
type Info struct {
	// Path is the path of the file as it was resolved
	Path string `json:"path"`

	// Name contains the base name of the file (without extension)
	Name string `json:"name"`

	// Extension contains the file extension of the file, without the dot
	Extension string `json:"extension"`

	// Size is the size of the file in bytes
	Size int64 `json:"size"`

	// ModTime is the modification time of the file at read time
	ModTime time.Time `json:"modTime"`
}

// NewInfo builds an Info from the resolved path and its stat result.
func NewInfo(path string, fi os.FileInfo) (info Info, err error) {
	var fileName, fileExt string
	if _, fileName, fileExt, err = fileutils.ExtractFileParts(path); err != nil {
		return
	}
	info = Info{
		Path:      path,
		Name:      fileName,
		Extension: fileExt,
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
	}
	return
}
