package logcat_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/arnavsurve/adblogs/pkg/log"
	"github.com/arnavsurve/adblogs/pkg/logcat"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func fixedBuilder(buf *bytes.Buffer) *logcat.Builder {
	now := time.Date(2024, 3, 7, 14, 30, 0, 0, time.UTC)
	return &logcat.Builder{
		Logger: log.NewZerologAdapter(zerolog.New(buf)),
		Now:    func() time.Time { return now },
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   string
		want logcat.Limit
	}{
		{"", logcat.Limit{Kind: logcat.LimitNone}},
		{"all", logcat.Limit{Kind: logcat.LimitNone, Raw: "all"}},
		{"100", logcat.Limit{Kind: logcat.LimitCount, Count: 100, Raw: "100"}},
		{"5m", logcat.Limit{Kind: logcat.LimitDuration, Duration: 5 * time.Minute, Raw: "5m"}},
		{"yesterday", logcat.Limit{Kind: logcat.LimitUnknown, Raw: "yesterday"}},
		{"-3", logcat.Limit{Kind: logcat.LimitUnknown, Raw: "-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logcat.ParseLimit(tt.in))
		})
	}
}

func TestBuilder_StartTimestamp(t *testing.T) {
	var buf bytes.Buffer
	b := fixedBuilder(&buf)
	assert.Equal(t, "03-07 14:25:00", b.StartTimestamp(logcat.DefaultWindow))

	b.Start = time.Date(2024, 12, 24, 8, 1, 2, 0, time.UTC)
	assert.Equal(t, "12-24 08:01:02", b.StartTimestamp(time.Hour))
}

func TestBuilder_KeyLogs(t *testing.T) {
	var buf bytes.Buffer
	b := fixedBuilder(&buf)

	assert.Equal(t,
		"logcat -v time -v printable -t '03-07 14:25:00.000' -d UEI.BLE:D NexusIR:I -e 'emit key release:'",
		b.KeyLogs(""))
	assert.Equal(t,
		"logcat -v time -v printable -t '03-07 14:25:00.000' -d UEI.BLE:D NexusIR:I -e 'power_set_state'",
		b.KeyLogs("power_set_state"))
	assert.Equal(t, "logcat -c", b.Clear())
}

func TestBuilder_Generic(t *testing.T) {
	tests := []struct {
		name        string
		limit       logcat.Limit
		timeLimited bool
		want        string
		warns       bool
	}{
		{
			name:        "duration",
			limit:       logcat.Since(10 * time.Minute),
			timeLimited: true,
			want:        "logcat -v time -v printable -t '03-07 14:20:00.000' -d 'DhcpClient:D' -e 'ACK'",
		},
		{
			name:  "duration without time limit",
			limit: logcat.Since(10 * time.Minute),
			want:  "logcat -v time -v printable -d 'DhcpClient:D' -e 'ACK'",
		},
		{
			name:        "count",
			limit:       logcat.Lines(50),
			timeLimited: true,
			want:        "logcat -v time -v printable -t '50' -d 'DhcpClient:D' -e 'ACK'",
		},
		{
			name:        "unknown falls back and warns",
			limit:       logcat.ParseLimit("later"),
			timeLimited: true,
			want:        "logcat -v time -v printable -d 'DhcpClient:D' -e 'ACK'",
			warns:       true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			b := fixedBuilder(&buf)
			assert.Equal(t, tt.want, b.Generic("DhcpClient:D", "ACK", tt.limit, tt.timeLimited))
			if tt.warns {
				assert.Contains(t, buf.String(), "Unknown limit type(unknown)")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestBuilder_All(t *testing.T) {
	var buf bytes.Buffer
	b := fixedBuilder(&buf)

	assert.Equal(t, `logcat -v time -v printable -d -T "03-07 14:25:00.000"`, b.All(logcat.Since(5*time.Minute)))
	assert.Equal(t, `logcat -v time -v printable -d -T "5"`, b.All(logcat.Lines(5)))
	assert.Equal(t, "logcat -v time -v printable -d", b.All(logcat.NoLimit()))
	assert.Empty(t, buf.String())

	assert.Equal(t, "logcat -v time -v printable -d", b.All(logcat.ParseLimit("???")))
	assert.Contains(t, buf.String(), "Reading all logs.")
}
