package recorder

import "github.com/tomy27/input-recorder/internal/event"

// TrimPolicy rewrites the log when a session stops. The recorder lock is
// held during the call.
type TrimPolicy func(event.Log) event.Log

// NoTrim keeps the log as captured.
func NoTrim(l event.Log) event.Log { return l }

// TrimLast drops the final n events. The tail of a session is normally the
// operator's own stop gesture (a hotkey press and release, or the click on
// a stop control), which is noise in the recording. Logs shorter than n
// trim to empty.
func TrimLast(n int) TrimPolicy {
	return func(l event.Log) event.Log {
		if n <= 0 {
			return l
		}
		if n >= len(l) {
			return l[:0]
		}
		return l[:len(l)-n]
	}
}
