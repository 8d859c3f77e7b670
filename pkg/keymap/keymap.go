// Package keymap translates remote-control key codes found in logcat output
// into the button names printed on the remote.
package keymap

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMarker precedes the key code in key release log lines.
const DefaultMarker = "e:"

// ErrUnknownKeyCode is returned when a marked line carries a code that is not
// in the table.
var ErrUnknownKeyCode = errors.New("unknown key code")

// Table maps numeric key codes to button labels. It is never mutated after
// construction.
type Table struct {
	labels map[string]string
}

// NewTable builds a table from a code to label mapping.
func NewTable(labels map[string]string) *Table {
	t := &Table{labels: make(map[string]string, len(labels))}
	for code, label := range labels {
		t.labels[code] = label
	}
	return t
}

// Default is the table for the rig's remote control.
var Default = NewTable(map[string]string{
	"353": "OK",
	"103": "Up",
	"108": "Down",
	"105": "Left",
	"106": "Right",
	"172": "MENU",
	"158": "Back",
	"580": "APPS",
	"362": "TV-Guide",
	"11":  "0",
	"2":   "1",
	"3":   "2",
	"4":   "3",
	"5":   "4",
	"6":   "5",
	"7":   "6",
	"8":   "7",
	"9":   "8",
	"10":  "9",
	"113": "Mute",
	"114": "VolumeDown",
	"115": "VolumeUp",
	"165": "Rewind",
	"163": "Forward",
	"164": "Play",
	"167": "Record",
	"128": "STOP",
	"116": "Power",
})

// Label returns the label for code.
func (t *Table) Label(code string) (string, error) {
	label, ok := t.labels[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKeyCode, code)
	}
	return label, nil
}

// Len reports the number of known codes.
func (t *Table) Len() int {
	return len(t.labels)
}

// TranslateLine appends " -> <label>" to line when marker occurs in it at an
// index greater than zero. A marker at the very start of the line is ignored.
func (t *Table) TranslateLine(line, marker string) (string, error) {
	idx := strings.Index(line, marker)
	if idx <= 0 {
		return line, nil
	}

	label, err := t.Label(strings.TrimSpace(line[idx+len(marker):]))
	if err != nil {
		return "", err
	}
	return line + " -> " + label, nil
}

// Translate prepends leftover to chunk, translates every complete line and
// returns them newline terminated along with the trailing partial line. When
// the input holds no newline, processed is empty and the whole input is the
// new leftover.
func (t *Table) Translate(leftover, chunk, marker string) (processed, rest string, err error) {
	lines := strings.Split(leftover+chunk, "\n")
	if len(lines) == 1 {
		return "", lines[0], nil
	}

	var b strings.Builder
	for _, line := range lines[:len(lines)-1] {
		out, err := t.TranslateLine(line, marker)
		if err != nil {
			return "", "", err
		}
		b.WriteString(out)
		b.WriteByte('\n')
	}
	return b.String(), lines[len(lines)-1], nil
}

// Translate runs Default.Translate.
func Translate(leftover, chunk, marker string) (string, string, error) {
	return Default.Translate(leftover, chunk, marker)
}
