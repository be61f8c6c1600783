package xferfile_test

import (
	"os"
	"path/filepath"

	"github.com/derektruong/s3put/internal/xferfile"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Info", func() {
	Describe("NewInfo", func() {
		It("should describe the file", func() {
			filePath := filepath.Join(GinkgoT().TempDir(), "report.csv")
			Expect(os.WriteFile(filePath, []byte("a,b,c"), 0o644)).To(Succeed())
			fi, err := os.Stat(filePath)
			Expect(err).ToNot(HaveOccurred())

			info, err := xferfile.NewInfo(filePath, fi)
			Expect(err).ToNot(HaveOccurred())
			Expect(info).To(And(
				HaveField("Path", filePath),
				HaveField("Name", "report"),
				HaveField("Extension", "csv"),
				HaveField("Size", int64(5)),
				HaveField("ModTime", Not(BeZero())),
			))
		})

		It("should return error when file path is empty", func() {
			fi, err := os.Stat(GinkgoT().TempDir())
			Expect(err).ToNot(HaveOccurred())
			_, err = xferfile.NewInfo("", fi)
			Expect(err).To(HaveOccurred())
		})
	})
})
