package event

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Log is an ordered sequence of events from a single recording session.
type Log []Event

// Duration returns the timestamp of the last event, i.e. the captured span
// of the session in seconds. An empty log has duration 0.
func (l Log) Duration() float64 {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].Timestamp
}

// CountByType tallies the events per type.
func (l Log) CountByType() map[Type]int {
	counts := make(map[Type]int, 5)
	for _, e := range l {
		counts[e.Type]++
	}
	return counts
}

// Sorted reports whether timestamps are non-decreasing.
func (l Log) Sorted() bool {
	for i := 1; i < len(l); i++ {
		if l[i].Timestamp < l[i-1].Timestamp {
			return false
		}
	}
	return true
}

// Encode writes the log to w as an indented JSON array. An empty or nil log
// encodes as [] rather than null.
func (l Log) Encode(w io.Writer) error {
	if l == nil {
		l = Log{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode log: %w", err)
	}
	return nil
}

// DecodeLog reads a JSON event array from r.
func DecodeLog(r io.Reader) (Log, error) {
	var l Log
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode log: %w", err)
	}
	return l, nil
}

// ReadFile loads a recording written by Encode.
func ReadFile(path string) (Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return DecodeLog(f)
}
