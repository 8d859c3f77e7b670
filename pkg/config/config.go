// Package config loads the rig's slot map: which device sits in which slot of
// which server, and how to reach the ADB server.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// MaxSlots is the number of physical slots per rig server.
	MaxSlots = 16

	DefaultDevicePort = 5555
)

var ErrUnknownSlot = errors.New("unknown slot")

// Slot is one physical device position.
type Slot struct {
	IP   string `yaml:"ip"`
	KDSN string `yaml:"kdsn"`
}

type ADBServer struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SlotMap holds a server's slots by slot number. Keys may be written as
// plain or quoted integers.
type SlotMap map[int]Slot

func (m *SlotMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: slots must be a mapping of slot number to device", value.Line)
	}

	slots := make(SlotMap, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		no, err := strconv.Atoi(strings.TrimSpace(key.Value))
		if err != nil {
			return fmt.Errorf("line %d: slot key %q is not a number", key.Line, key.Value)
		}
		if _, dup := slots[no]; dup {
			return fmt.Errorf("line %d: slot %d is defined twice", key.Line, no)
		}
		var slot Slot
		if err := val.Decode(&slot); err != nil {
			return fmt.Errorf("slot %d: %w", no, err)
		}
		slots[no] = slot
	}
	*m = slots
	return nil
}

type Config struct {
	ADB        ADBServer          `yaml:"adb"`
	DevicePort int                `yaml:"device_port,omitempty"`
	Servers    map[string]SlotMap `yaml:"servers"`
}

// envRe matches a whole value of the form {{ env.NAME }}.
var envRe = regexp.MustCompile(`^\s*\{\{\s*env\.([A-Za-z0-9_]+)\s*}}\s*$`)

// Load reads, resolves and validates a slot file.
func Load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading slot file %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes slot YAML. The returned warnings name {{ env.* }} references
// whose variable is not set.
func Parse(data []byte) (*Config, []string, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing slot YAML: %w", err)
	}

	var warnings []string
	resolve := func(what, val string) string {
		match := envRe.FindStringSubmatch(val)
		if match == nil {
			return val
		}
		envVal, exists := os.LookupEnv(match[1])
		if !exists {
			warnings = append(warnings, fmt.Sprintf("environment variable %q not found for %s", match[1], what))
		}
		return envVal
	}

	cfg.ADB.Host = resolve("adb.host", cfg.ADB.Host)
	for server, slots := range cfg.Servers {
		for no, slot := range slots {
			where := fmt.Sprintf("server %q slot %d", server, no)
			slot.IP = resolve(where+" ip", slot.IP)
			slot.KDSN = resolve(where+" kdsn", slot.KDSN)
			slots[no] = slot
		}
	}
	sort.Strings(warnings)

	if cfg.DevicePort == 0 {
		cfg.DevicePort = DefaultDevicePort
	}

	if err := Validate(&cfg); err != nil {
		return nil, warnings, fmt.Errorf("invalid slot file: %w", err)
	}
	return &cfg, warnings, nil
}

// Lookup returns the slot entry for server and slot number.
func (c *Config) Lookup(server string, slot int) (Slot, error) {
	slots, ok := c.Servers[server]
	if !ok {
		return Slot{}, fmt.Errorf("%w: server %q is not configured", ErrUnknownSlot, server)
	}
	s, ok := slots[slot]
	if !ok {
		return Slot{}, fmt.Errorf("%w: server %q has no slot %d", ErrUnknownSlot, server, slot)
	}
	return s, nil
}

// Serial is the adb serial of a slot's device, e.g. 10.0.0.7:5555.
func (c *Config) Serial(server string, slot int) (string, error) {
	s, err := c.Lookup(server, slot)
	if err != nil {
		return "", err
	}
	return s.IP + ":" + strconv.Itoa(c.DevicePort), nil
}

// Slots lists the configured slot numbers of server in ascending order.
func (c *Config) Slots(server string) []int {
	slots := make([]int, 0, len(c.Servers[server]))
	for no := range c.Servers[server] {
		slots = append(slots, no)
	}
	sort.Ints(slots)
	return slots
}

// ServerNames lists the configured servers in ascending order.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
