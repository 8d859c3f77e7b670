package logcat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arnavsurve/adblogs/pkg/types"
)

const (
	// TimestampFormat is the logcat -t/-T time format without milliseconds.
	TimestampFormat = "01-02 15:04:05"

	// DefaultKeySearch matches the remote's key release lines.
	DefaultKeySearch = "emit key release:"

	// DefaultWindow is how far back queries look when no start time is set.
	DefaultWindow = 5 * time.Minute

	ClearCommand = "logcat -c"

	baseCommand = "logcat -v time -v printable"
)

// LimitKind says how a query bounds the lines it returns.
type LimitKind int

const (
	LimitUnknown LimitKind = iota
	LimitNone
	LimitDuration
	LimitCount
)

func (k LimitKind) String() string {
	switch k {
	case LimitNone:
		return "none"
	case LimitDuration:
		return "duration"
	case LimitCount:
		return "count"
	default:
		return "unknown"
	}
}

// Limit bounds a logcat query either by time or by line count.
type Limit struct {
	Kind     LimitKind
	Duration time.Duration
	Count    int

	// Raw keeps the unparsed value for diagnostics.
	Raw string
}

func Since(d time.Duration) Limit { return Limit{Kind: LimitDuration, Duration: d} }

func Lines(n int) Limit { return Limit{Kind: LimitCount, Count: n} }

func NoLimit() Limit { return Limit{Kind: LimitNone} }

// ParseLimit reads "all" (or ""), a line count such as "100", or a duration
// such as "5m". Anything else yields a LimitUnknown limit rather than an error
// so the query can still run unbounded.
func ParseLimit(s string) Limit {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "all", "none":
		return Limit{Kind: LimitNone, Raw: s}
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return Limit{Kind: LimitCount, Count: n, Raw: s}
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return Limit{Kind: LimitDuration, Duration: d, Raw: s}
	}
	return Limit{Kind: LimitUnknown, Raw: s}
}

func (l Limit) String() string {
	switch l.Kind {
	case LimitNone:
		return "all"
	case LimitDuration:
		return l.Duration.String()
	case LimitCount:
		return strconv.Itoa(l.Count)
	default:
		return l.Raw
	}
}

// Builder renders logcat shell commands. Start, when non-zero, pins the
// beginning of time-bounded queries; otherwise they start at Now minus the
// limit's duration.
type Builder struct {
	Logger types.Logger
	Start  time.Time
	Now    func() time.Time
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// StartTimestamp formats the beginning of a query window of the given length.
func (b *Builder) StartTimestamp(window time.Duration) string {
	if !b.Start.IsZero() {
		return b.Start.Format(TimestampFormat)
	}
	return b.now().Add(-window).Format(TimestampFormat)
}

// Clear empties the device log buffer.
func (b *Builder) Clear() string {
	return ClearCommand
}

// KeyLogs selects the remote control tags over the default window.
func (b *Builder) KeyLogs(search string) string {
	if search == "" {
		search = DefaultKeySearch
	}
	return fmt.Sprintf("%s -t '%s.000' -d UEI.BLE:D NexusIR:I -e '%s'", baseCommand, b.StartTimestamp(DefaultWindow), search)
}

// Generic filters by tag and search expression. timeLimited=false ignores the
// limit's bound.
func (b *Builder) Generic(tag, search string, limit Limit, timeLimited bool) string {
	unbounded := fmt.Sprintf("%s -d '%s' -e '%s'", baseCommand, tag, search)

	switch limit.Kind {
	case LimitDuration:
		if timeLimited {
			return fmt.Sprintf("%s -t '%s.000' -d '%s' -e '%s'", baseCommand, b.StartTimestamp(limit.Duration), tag, search)
		}
		return unbounded
	case LimitCount:
		if timeLimited {
			return fmt.Sprintf("%s -t '%d' -d '%s' -e '%s'", baseCommand, limit.Count, tag, search)
		}
		return unbounded
	case LimitNone:
		return unbounded
	default:
		b.warnUnknown(limit)
		return unbounded
	}
}

// All dumps every buffer entry within the limit.
func (b *Builder) All(limit Limit) string {
	cmd := baseCommand + " -d"
	switch limit.Kind {
	case LimitDuration:
		return cmd + fmt.Sprintf(` -T "%s.000"`, b.StartTimestamp(limit.Duration))
	case LimitCount:
		return cmd + fmt.Sprintf(` -T "%d"`, limit.Count)
	case LimitNone:
		return cmd
	default:
		b.warnUnknown(limit)
		return cmd
	}
}

func (b *Builder) warnUnknown(limit Limit) {
	if b.Logger == nil {
		return
	}
	b.Logger.Warn().Str("limit", limit.Raw).Msgf("Unknown limit type(%s). Reading all logs.", limit.Kind)
}
