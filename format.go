package s3put

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

var byteUnits = []string{"Bytes", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}

// FormatBytes renders bytes with binary units, rounded to at most decimals
// decimal places without trailing zeros, e.g. FormatBytes(1536, 1) is
// "1.5 KiB". Zero, negative and non-finite values render as "0 Bytes".
func FormatBytes(bytes float64, decimals int) string {
	if bytes <= 0 || math.IsNaN(bytes) || math.IsInf(bytes, 0) {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}

	i := int(math.Floor(math.Log(bytes) / math.Log(1024)))
	i = max(0, min(i, len(byteUnits)-1))

	scale := math.Pow(10, float64(decimals))
	value := math.Round(bytes/math.Pow(1024, float64(i))*scale) / scale
	return fmt.Sprintf("%s %s", humanize.FtoaWithDigits(value, decimals), byteUnits[i])
}
