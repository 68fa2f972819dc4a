// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package protocol

import "bytes"

// DefaultDelimiter terminates each protocol message unless overridden.
const DefaultDelimiter = "\r\n"

// Framer reassembles delimiter-terminated messages from a byte stream. Each
// connection owns one Framer; it is not safe for concurrent use.
//
// Bytes are appended as they arrive. Whenever the buffer contains at least
// one delimiter it is split: every fragment except the last is a complete
// message, and the last (possibly empty) fragment is retained as the start
// of the next, not-yet-terminated message. This handles partial reads and
// multiple messages arriving in a single read.
type Framer struct {
	delim []byte
	buf   []byte
}

// NewFramer creates a Framer for the given delimiter. An empty delimiter
// falls back to DefaultDelimiter.
func NewFramer(delimiter string) *Framer {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Framer{delim: []byte(delimiter)}
}

// Append adds incoming bytes and returns the complete messages they
// terminate, in arrival order. Returns nil when no delimiter is present yet.
func (f *Framer) Append(p []byte) []string {
	f.buf = append(f.buf, p...)
	if !bytes.Contains(f.buf, f.delim) {
		return nil
	}

	fragments := bytes.Split(f.buf, f.delim)
	last := len(fragments) - 1
	messages := make([]string, 0, last)
	for _, fragment := range fragments[:last] {
		messages = append(messages, string(fragment))
	}

	// Retain the trailing fragment in a fresh allocation so the returned
	// messages do not alias the reused buffer.
	f.buf = append([]byte(nil), fragments[last]...)
	return messages
}

// Pending returns the bytes of the current unterminated message.
func (f *Framer) Pending() []byte {
	return f.buf
}
