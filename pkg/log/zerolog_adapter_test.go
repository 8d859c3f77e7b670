package log_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/arnavsurve/adblogs/pkg/log"
	"github.com/arnavsurve/adblogs/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter(t *testing.T) {
	out := &bytes.Buffer{}
	zl := zerolog.New(out)
	log := log.NewZerologAdapter(zl)

	log.Info().
		Str("unit", "test").
		Int("n", 1).
		Bool("ok", true).
		Msg("hello")

	if !bytes.Contains(out.Bytes(), []byte(`"unit":"test"`)) {
		t.Fatalf("field missing")
	}
	if !bytes.Contains(out.Bytes(), []byte(`"ok":true`)) {
		t.Fatalf("bool field missing")
	}
}

type captureSink struct {
	events []*log.LogEvent
	closed bool
}

func (c *captureSink) Write(event *log.LogEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) Close() error {
	c.closed = true
	return nil
}

func TestRouter_DecodesZerologEvents(t *testing.T) {
	sink := &captureSink{}
	router := log.NewRouter(sink)
	logger := log.NewZerologAdapter(zerolog.New(router).With().Timestamp().Logger())

	logger.Warn().Str("serial", "10.0.0.1:5555").Msg("retrying")

	require.Len(t, sink.events, 1)
	evt := sink.events[0]
	assert.Equal(t, types.WarnLevel, evt.Level)
	assert.Equal(t, "retrying", evt.Message)
	assert.Equal(t, "10.0.0.1:5555", evt.Fields["serial"])
	assert.False(t, evt.Timestamp.IsZero())

	require.NoError(t, router.Close())
	assert.True(t, sink.closed)
}

func TestRouter_MinLevel(t *testing.T) {
	sink := &captureSink{}
	router := log.NewRouter(sink)
	router.MinLevel = types.InfoLevel
	logger := log.NewZerologAdapter(zerolog.New(router))

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	require.Len(t, sink.events, 1)
	assert.Equal(t, "shown", sink.events[0].Message)
}

func TestBeginRegion(t *testing.T) {
	sink := &captureSink{}
	logger := log.NewZerologAdapter(zerolog.New(log.NewRouter(sink)))

	scoped, end := log.BeginRegion(logger, "ADB Logs")
	scoped.Info().Msg("inside")
	end()

	require.Len(t, sink.events, 3)
	for _, evt := range sink.events {
		assert.Equal(t, "ADB Logs", evt.Fields[log.RegionField])
	}
	assert.Equal(t, "Begin region", sink.events[0].Message)
	assert.Equal(t, "End region", sink.events[2].Message)

	same, end := log.BeginRegion(logger, "")
	end()
	assert.Same(t, logger, same)
}

func TestAdapter_ListAndDurationFields(t *testing.T) {
	out := &bytes.Buffer{}
	logger := log.NewZerologAdapter(zerolog.New(out))

	logger.Info().
		Strs("serials", []string{"10.0.0.1:5555", "10.0.0.2:5555"}).
		Dur("elapsed", 1500*time.Millisecond).
		Msg("devices")

	assert.Contains(t, out.String(), `"serials":["10.0.0.1:5555","10.0.0.2:5555"]`)
	assert.Contains(t, out.String(), `"elapsed":1500`)
}
