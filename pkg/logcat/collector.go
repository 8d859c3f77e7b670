// Package logcat builds logcat shell commands and collects their output.
package logcat

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/arnavsurve/adblogs/pkg/types"
	"golang.org/x/text/encoding/charmap"
)

// ChunkSize is the size of a single read from the device stream.
const ChunkSize = 4096

// Result is the decoded output of one logcat invocation.
type Result struct {
	Chunks []string

	// Degraded counts chunks that were not valid UTF-8 and went through the
	// Latin-1 fallback decoder.
	Degraded int
}

// Text concatenates all chunks.
func (r Result) Text() string {
	n := 0
	for _, c := range r.Chunks {
		n += len(c)
	}
	b := make([]byte, 0, n)
	for _, c := range r.Chunks {
		b = append(b, c...)
	}
	return string(b)
}

// Empty reports whether nothing was collected.
func (r Result) Empty() bool {
	return len(r.Chunks) == 0
}

// Collector drains a shell stream into a Result.
type Collector struct {
	Logger types.Logger
}

// Collect reads r until it reports no more data. A read error other than
// io.EOF ends collection and is returned together with what was read so far.
// Decoding problems are never returned as errors.
func (c *Collector) Collect(r io.Reader) (Result, error) {
	var (
		res   Result
		carry []byte
		buf   = make([]byte, ChunkSize)
	)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)
			carry = nil

			if cut := incompleteTail(data); cut > 0 {
				carry = append([]byte(nil), data[len(data)-cut:]...)
				data = data[:len(data)-cut]
			}
			if len(data) > 0 {
				res.add(c.decode(data))
			}
		}
		if err != nil {
			if len(carry) > 0 {
				res.add(c.decode(carry))
			}
			if errors.Is(err, io.EOF) {
				return res, nil
			}
			return res, fmt.Errorf("reading logcat stream: %w", err)
		}
		if n == 0 {
			// Treat an empty read like end of data.
			if len(carry) > 0 {
				res.add(c.decode(carry))
			}
			return res, nil
		}
	}
}

type decoded struct {
	text     string
	degraded bool
}

func (r *Result) add(d decoded) {
	r.Chunks = append(r.Chunks, d.text)
	if d.degraded {
		r.Degraded++
	}
}

func (c *Collector) decode(data []byte) decoded {
	if utf8.Valid(data) {
		return decoded{text: string(data)}
	}

	if c.Logger != nil {
		c.Logger.Warn().Int("bytes", len(data)).Msg("Some unicode issue detected while loading the ADB logs")
	}
	// Valid sequences are kept; each stray byte is read as Latin-1.
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			r = charmap.ISO8859_1.DecodeByte(data[0])
			size = 1
		}
		b.WriteRune(r)
		data = data[size:]
	}
	return decoded{text: b.String(), degraded: true}
}

// incompleteTail returns how many bytes at the end of data form the start of
// a UTF-8 sequence that the next read may complete.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if utf8.RuneStart(b) {
			if b >= utf8.RuneSelf && !utf8.FullRune(data[len(data)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}
