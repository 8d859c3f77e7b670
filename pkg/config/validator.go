package config

import (
	"fmt"
	"net"
)

// Validate checks the slot map: named servers, slot numbers within the rig,
// complete slot entries and no ip used twice on one server.
func Validate(cfg *Config) error {
	if cfg.ADB.Port < 0 || cfg.ADB.Port > 65535 {
		return fmt.Errorf("adb.port %d is out of range", cfg.ADB.Port)
	}
	if cfg.DevicePort < 1 || cfg.DevicePort > 65535 {
		return fmt.Errorf("device_port %d is out of range", cfg.DevicePort)
	}
	if len(cfg.Servers) == 0 {
		return fmt.Errorf("slot file defines no 'servers'")
	}

	for _, server := range cfg.ServerNames() {
		if server == "" {
			return fmt.Errorf("server with empty name")
		}

		ips := make(map[string]int)
		for _, no := range cfg.Slots(server) {
			slot := cfg.Servers[server][no]
			if no < 1 || no > MaxSlots {
				return fmt.Errorf("server %q: slot %d is outside 1..%d", server, no, MaxSlots)
			}
			if slot.IP == "" {
				return fmt.Errorf("server %q slot %d is missing 'ip'", server, no)
			}
			if net.ParseIP(slot.IP) == nil {
				return fmt.Errorf("server %q slot %d has invalid ip %q", server, no, slot.IP)
			}
			if slot.KDSN == "" {
				return fmt.Errorf("server %q slot %d is missing 'kdsn'", server, no)
			}
			if other, dup := ips[slot.IP]; dup {
				return fmt.Errorf("server %q: slots %d and %d share ip %s", server, other, no, slot.IP)
			}
			ips[slot.IP] = no
		}
	}

	return nil
}
