package mft

import (
	"time"
)

// Seconds between the FILETIME epoch (1601-01-01) and the Unix epoch.
const filetimeUnixDelta = 11644473600

// WinFileTime64 converts a 64 bit windows FILETIME value (100ns
// intervals since 1601-01-01, assumed UTC) into a time.Time. This is
// a pure function - callers that convert the same value repeatedly
// can memoize it themselves, correctness never depends on a cache.
func WinFileTime64(filetime uint64) time.Time {
	secs := int64(filetime/10000000) - filetimeUnixDelta
	nsecs := int64(filetime%10000000) * 100
	return time.Unix(secs, nsecs).UTC()
}
