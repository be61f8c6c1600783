package local

import (
	"context"
	"io"
	"os"

	"github.com/derektruong/s3put/internal/xferfile"
	"github.com/go-logr/logr"
)

// Source reads files from the local filesystem.
type Source struct {
	logger logr.Logger
}

func NewSource(logger logr.Logger) (s *Source) {
	s = &Source{
		logger: logger.WithName("local.source"),
	}
	return
}

// ReadFile reads the whole file at filePath into memory. The size in info is
// the number of bytes actually read.
func (s *Source) ReadFile(ctx context.Context, filePath string) (content []byte, info xferfile.Info, err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	var file *os.File
	if file, err = os.Open(filePath); err != nil {
		return
	}
	defer file.Close()

	var fileInfo os.FileInfo
	if fileInfo, err = file.Stat(); err != nil {
		return
	}
	if content, err = io.ReadAll(file); err != nil {
		return
	}
	if info, err = xferfile.NewInfo(filePath, fileInfo); err != nil {
		return
	}
	info.Size = int64(len(content))
	s.logger.V(1).Info("read local file", "path", filePath, "size", info.Size)
	return
}
