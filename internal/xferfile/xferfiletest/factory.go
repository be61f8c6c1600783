package xferfiletest

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/derektruong/s3put/internal/xferfile"
)

// InfoFactory builds a random Info, editFn may override any field.
func InfoFactory(editFn func(info *xferfile.Info)) xferfile.Info {
	name := gofakeit.Word()
	ext := gofakeit.FileExtension()
	info := xferfile.Info{
		Path:      fmt.Sprintf("%s/%s.%s", gofakeit.Word(), name, ext),
		Name:      name,
		Extension: ext,
		Size:      int64(gofakeit.Number(1, 1000000)),
		ModTime:   gofakeit.PastDate(),
	}
	if editFn != nil {
		editFn(&info)
	}
	return info
}
