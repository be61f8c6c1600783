package s3put_test

import (
	"os"
	"path/filepath"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/derektruong/s3put"
	"github.com/derektruong/s3put/internal/xferfile"
	"github.com/derektruong/s3put/internal/xferfile/xferfiletest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// configFactory creates a valid Config with the given configEditorFn applied.
func configFactory(configEditorFn func(cfg *s3put.Config)) s3put.Config {
	cfg := s3put.DefaultConfig()
	cfg.File = gofakeit.Word() + ".txt"
	cfg.Bucket = gofakeit.Regex("[a-z]{3,20}")
	cfg.Endpoint = "http://127.0.0.1:9000"
	cfg.AccessKeyID = gofakeit.LetterN(20)
	cfg.SecretAccessKey = gofakeit.LetterN(40)
	if configEditorFn != nil {
		configEditorFn(&cfg)
	}
	return cfg
}

// writeFile creates dir/relPath with random content of the given size and
// returns the content.
func writeFile(dir, relPath string, size int) []byte {
	GinkgoHelper()
	// LetterN never returns an empty string
	content := []byte{}
	if size > 0 {
		content = []byte(gofakeit.LetterN(uint(size)))
	}
	path := filepath.Join(dir, relPath)
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, content, 0o644)).To(Succeed())
	return content
}

// writeRandomFile creates a file named after a random Info in dir.
func writeRandomFile(dir string) (xferfile.Info, []byte) {
	GinkgoHelper()
	info := xferfiletest.InfoFactory(func(i *xferfile.Info) {
		i.Size = int64(gofakeit.Number(1, 4096))
		i.Path = i.Name + "." + i.Extension
	})
	return info, writeFile(dir, info.Path, int(info.Size))
}
