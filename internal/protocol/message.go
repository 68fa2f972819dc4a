// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package protocol

import "strings"

// Command is the first pipe-separated field of a message.
type Command string

// Commands understood by the aggregator.
const (
	CmdLog            Command = "+log"
	CmdRegisterNode   Command = "+node"
	CmdRegisterStream Command = "+stream"
	CmdRemoveNode     Command = "-node"
	CmdRemoveStream   Command = "-stream"
	CmdBind           Command = "+bind"
)

// fieldSeparator joins command fields on the wire.
const fieldSeparator = "|"

// Parse splits a framed message into its command and remaining fields. The
// fields of a +log message beyond the level are NOT rejoined here; use
// JoinTail for that.
func Parse(raw string) (Command, []string) {
	fields := strings.Split(raw, fieldSeparator)
	return Command(fields[0]), fields[1:]
}

// JoinTail rejoins the fields from index i onward with the field separator.
// Log message content may itself contain "|", so the +log handler joins
// everything after the level field back into one message string.
func JoinTail(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.Join(fields[i:], fieldSeparator)
}

// Format builds one wire message: the command and arguments joined with the
// field separator, trailing whitespace trimmed, and the delimiter appended.
// Trimming keeps a tailed line's own line ending from corrupting framing.
func Format(delimiter string, cmd Command, args ...string) string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, string(cmd))
	parts = append(parts, args...)
	body := strings.TrimRight(strings.Join(parts, fieldSeparator), " \t\r\n")
	return body + delimiter
}

// SplitCSV parses an optional comma-separated name list field. Empty input
// and empty elements yield no names.
func SplitCSV(field string) []string {
	if field == "" {
		return nil
	}
	parts := strings.Split(field, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
