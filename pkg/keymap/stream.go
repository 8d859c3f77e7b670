package keymap

import (
	"errors"
	"strings"
)

// Stream feeds chunks through a Table, keeping the partial trailing line
// between calls. Unlike Translate it never fails: a line whose code is not in
// the table is passed through untranslated and counted.
type Stream struct {
	table    *Table
	marker   string
	leftover string

	// Unknown counts lines emitted untranslated because of an unknown code.
	Unknown int
}

func NewStream(table *Table, marker string) *Stream {
	if table == nil {
		table = Default
	}
	return &Stream{table: table, marker: marker}
}

// Write consumes chunk and returns the translated complete lines.
func (s *Stream) Write(chunk string) string {
	processed, rest, err := s.table.Translate(s.leftover, chunk, s.marker)
	if err == nil {
		s.leftover = rest
		return processed
	}

	lines := strings.Split(s.leftover+chunk, "\n")
	var b strings.Builder
	for _, line := range lines[:len(lines)-1] {
		out, err := s.table.TranslateLine(line, s.marker)
		if errors.Is(err, ErrUnknownKeyCode) {
			s.Unknown++
			out = line
		}
		b.WriteString(out)
		b.WriteByte('\n')
	}
	s.leftover = lines[len(lines)-1]
	return b.String()
}

// Flush returns the pending partial line, untranslated, and resets it.
func (s *Stream) Flush() string {
	rest := s.leftover
	s.leftover = ""
	return rest
}
