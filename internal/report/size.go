package report

import "strconv"

// SizeUnits are the unit suffixes for bytes, KiB, MiB and GiB
type SizeUnits [4]string

// DefaultSizeUnits are the English suffixes
var DefaultSizeUnits = SizeUnits{"B", "KB", "MB", "GB"}

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// FormatFileSize renders bytes with binary units: whole bytes below 1 KiB,
// otherwise two decimals
func FormatFileSize(bytes int64, units SizeUnits) string {
	switch {
	case bytes < kib:
		return strconv.FormatInt(bytes, 10) + " " + units[0]
	case bytes < mib:
		return fixed2(float64(bytes)/kib) + " " + units[1]
	case bytes < gib:
		return fixed2(float64(bytes)/mib) + " " + units[2]
	default:
		return fixed2(float64(bytes)/gib) + " " + units[3]
	}
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
