package geometry

import "sync/atomic"

// TimeStamp is a process-wide monotonic modification counter. A larger value
// always means a later modification, regardless of which object recorded it.
type TimeStamp uint64

var globalTimeStamp atomic.Uint64

// NextTimeStamp returns a fresh timestamp greater than every previously issued one.
func NextTimeStamp() TimeStamp {
	return TimeStamp(globalTimeStamp.Add(1))
}

// MaxTimeStamp returns the later of the given timestamps.
func MaxTimeStamp(stamps ...TimeStamp) TimeStamp {
	var latest TimeStamp
	for _, s := range stamps {
		if s > latest {
			latest = s
		}
	}
	return latest
}
