package config_test

import (
	"testing"

	"github.com/arnavsurve/adblogs/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSlotFixture(t *testing.T) {
	t.Setenv("ADBLOGS_TEST_ADB_HOST", "10.13.130.171")
	t.Setenv("ADBLOGS_TEST_KDSN", "KD0013")

	cfg, warnings, err := config.Load("test_fixtures/slots.yml")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "10.13.130.171", cfg.ADB.Host)
	assert.Equal(t, 5039, cfg.ADB.Port)
	assert.Equal(t, config.DefaultDevicePort, cfg.DevicePort)
	assert.Equal(t, []string{"10.13.130.182"}, cfg.ServerNames())
	assert.Equal(t, []int{1, 13}, cfg.Slots("10.13.130.182"))

	slot, err := cfg.Lookup("10.13.130.182", 13)
	require.NoError(t, err)
	assert.Equal(t, config.Slot{IP: "10.13.131.23", KDSN: "KD0013"}, slot)

	serial, err := cfg.Serial("10.13.130.182", 1)
	require.NoError(t, err)
	assert.Equal(t, "10.13.131.11:5555", serial)
}

func TestLoadSlotFixture_MissingEnv(t *testing.T) {
	t.Setenv("ADBLOGS_TEST_KDSN", "KD0013")

	cfg, warnings, err := config.Load("test_fixtures/slots.yml")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "ADBLOGS_TEST_ADB_HOST")
	assert.Empty(t, cfg.ADB.Host)
}

func TestLoadBrokenSlotFixture(t *testing.T) {
	_, _, err := config.Load("test_fixtures/broken_slots.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot 17 is outside 1..16")
}

func TestLookup_Unknown(t *testing.T) {
	cfg, _, err := config.Parse([]byte("servers:\n  rig-a:\n    2: {ip: 10.0.0.2, kdsn: K2}\n"))
	require.NoError(t, err)

	_, err = cfg.Lookup("rig-b", 2)
	assert.ErrorIs(t, err, config.ErrUnknownSlot)

	_, err = cfg.Lookup("rig-a", 3)
	assert.ErrorIs(t, err, config.ErrUnknownSlot)
	assert.Contains(t, err.Error(), "has no slot 3")
}

func TestParse_SlotKeys(t *testing.T) {
	cfg, _, err := config.Parse([]byte(`
servers:
  rig:
    1: {ip: 10.0.0.1, kdsn: K1}
    "2": {ip: 10.0.0.2, kdsn: K2}
    '16': {ip: 10.0.0.16, kdsn: K16}
`))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 16}, cfg.Slots("rig"))

	entry, err := cfg.Lookup("rig", 2)
	require.NoError(t, err)
	assert.Equal(t, config.Slot{IP: "10.0.0.2", KDSN: "K2"}, entry)
}

func TestParse_BadSlotKeys(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		errorMsg string
	}{
		{
			name:     "not a number",
			yaml:     "servers:\n  rig:\n    first: {ip: 10.0.0.1, kdsn: K1}\n",
			errorMsg: `slot key "first" is not a number`,
		},
		{
			name:     "quoted duplicate",
			yaml:     "servers:\n  rig:\n    1: {ip: 10.0.0.1, kdsn: K1}\n    \"1\": {ip: 10.0.0.2, kdsn: K2}\n",
			errorMsg: "slot 1 is defined twice",
		},
		{
			name:     "not a mapping",
			yaml:     "servers:\n  rig: [10.0.0.1]\n",
			errorMsg: "slots must be a mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := config.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		errorMsg string
	}{
		{
			name:     "no servers",
			yaml:     "adb: {host: localhost}\n",
			errorMsg: "defines no 'servers'",
		},
		{
			name:     "missing ip",
			yaml:     "servers:\n  rig:\n    1: {kdsn: K1}\n",
			errorMsg: "slot 1 is missing 'ip'",
		},
		{
			name:     "invalid ip",
			yaml:     "servers:\n  rig:\n    1: {ip: not-an-ip, kdsn: K1}\n",
			errorMsg: `invalid ip "not-an-ip"`,
		},
		{
			name:     "missing kdsn",
			yaml:     "servers:\n  rig:\n    1: {ip: 10.0.0.1}\n",
			errorMsg: "slot 1 is missing 'kdsn'",
		},
		{
			name:     "duplicate ip",
			yaml:     "servers:\n  rig:\n    1: {ip: 10.0.0.1, kdsn: K1}\n    2: {ip: 10.0.0.1, kdsn: K2}\n",
			errorMsg: "slots 1 and 2 share ip 10.0.0.1",
		},
		{
			name:     "bad device port",
			yaml:     "device_port: 70000\nservers:\n  rig:\n    1: {ip: 10.0.0.1, kdsn: K1}\n",
			errorMsg: "device_port 70000 is out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := config.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
