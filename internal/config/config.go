// Package config loads and validates the console's JSON configuration.
// Validation collects every problem before failing so a misconfigured
// deployment reports all of them at once. Safety-relevant values (the
// authorization code, channel code bases) have no defaults; missing
// means invalid.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rkorell/pyrod/internal/rfcodec"
)

// Transmit strategy names accepted in rf_sender.mode.
const (
	TxModeGPIO     = "gpio"
	TxModeCodesend = "codesend"
)

// Sender is the rf_sender section: the physical pulse encoding plus the
// transmit strategy.
type Sender struct {
	GPIO         *int    `json:"gpio"`
	Gap          *uint32 `json:"gap"`
	T0           *uint32 `json:"t0"`
	T1           *uint32 `json:"t1"`
	Bits         *int    `json:"bits"`
	Repeats      *int    `json:"repeats"`
	Mode         string  `json:"mode"`
	CodesendPath string  `json:"codesend_path"`
}

// Receiver is the rf_receiver section: the GPIO capture settings.
type Receiver struct {
	GPIO       *int `json:"gpio"`
	GlitchUs   int  `json:"glitch_us"`
	WatchdogMs int  `json:"watchdog_ms"`
}

// Authorization is the authorization section.
type Authorization struct {
	Required       *bool   `json:"required"`
	TimeoutSeconds *int    `json:"timeout_seconds"`
	Code           *uint32 `json:"code"`
}

// Group describes one channel group.
type Group struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Base    *int   `json:"base"`
	Enabled bool   `json:"enabled"`
}

// DirectIgniters is the standalone igniter section.
type DirectIgniters struct {
	Enabled  bool `json:"enabled"`
	FirstBox *int `json:"first_box"`
	Count    *int `json:"count"`
}

// Serial is the serial bridge section.
type Serial struct {
	Port string `json:"port"`
}

// MQTT is the optional audit publishing section.
type MQTT struct {
	Broker string `json:"broker"`
}

// Logging selects the log verbosity.
type Logging struct {
	Level string `json:"level"`
}

// Config is the full validated configuration of one deployment.
type Config struct {
	Sender   Sender         `json:"rf_sender"`
	Receiver Receiver       `json:"rf_receiver"`
	Auth     Authorization  `json:"authorization"`
	Groups   []Group        `json:"groups"`
	Direct   DirectIgniters `json:"direct_igniters"`
	Serial   Serial         `json:"serial"`
	MQTT     MQTT           `json:"mqtt"`
	Logging  Logging        `json:"logging"`
}

// Load reads, parses, and validates the configuration at path. All
// validation problems are reported in one error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if problems := cfg.validate(); len(problems) > 0 {
		return nil, fmt.Errorf("config %s invalid: %s", path, strings.Join(problems, "; "))
	}
	return &cfg, nil
}

func (c *Config) validate() []string {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	s := c.Sender
	if s.GPIO == nil {
		add("rf_sender.gpio missing")
	}
	if s.Gap == nil {
		add("rf_sender.gap missing")
	}
	if s.T0 == nil {
		add("rf_sender.t0 missing")
	}
	if s.T1 == nil {
		add("rf_sender.t1 missing")
	}
	if s.Bits == nil {
		add("rf_sender.bits missing")
	} else if *s.Bits <= 0 || *s.Bits > 32 {
		add("rf_sender.bits must be 1..32, got %d", *s.Bits)
	}
	if s.Repeats == nil {
		add("rf_sender.repeats missing")
	} else if *s.Repeats <= 0 {
		add("rf_sender.repeats must be positive, got %d", *s.Repeats)
	}
	switch s.Mode {
	case "", TxModeGPIO:
	case TxModeCodesend:
		if s.CodesendPath == "" {
			add("rf_sender.codesend_path missing for mode %q", TxModeCodesend)
		}
	default:
		add("rf_sender.mode must be %q or %q, got %q", TxModeGPIO, TxModeCodesend, s.Mode)
	}

	if c.Receiver.GPIO == nil {
		add("rf_receiver.gpio missing")
	}

	a := c.Auth
	if a.Required == nil {
		add("authorization.required missing")
	}
	if a.TimeoutSeconds == nil {
		add("authorization.timeout_seconds missing")
	} else if *a.TimeoutSeconds <= 0 {
		add("authorization.timeout_seconds must be positive, got %d", *a.TimeoutSeconds)
	}
	// The code is only mandatory when authorization is enforced.
	if a.Required == nil || *a.Required {
		if a.Code == nil {
			add("authorization.code missing (authorization.required is true)")
		} else if *a.Code == 0 {
			add("authorization.code must be non-zero")
		}
	}

	seen := make(map[int]bool)
	for i, g := range c.Groups {
		if g.Base == nil {
			add("groups[%d].base missing", i)
		}
		if g.Name == "" {
			add("groups[%d].name missing", i)
		}
		if seen[g.ID] {
			add("groups[%d].id %d duplicated", i, g.ID)
		}
		seen[g.ID] = true
	}

	// Template placeholders left in a deployed config are fatal.
	for field, v := range map[string]string{
		"rf_sender.codesend_path": c.Sender.CodesendPath,
		"serial.port":             c.Serial.Port,
		"mqtt.broker":             c.MQTT.Broker,
	} {
		if strings.Contains(v, "CHANGE_ME") {
			add("%s still has the CHANGE_ME placeholder", field)
		}
	}

	if c.Direct.Enabled {
		if c.Direct.FirstBox == nil {
			add("direct_igniters.first_box missing")
		}
		if c.Direct.Count == nil {
			add("direct_igniters.count missing")
		} else if *c.Direct.Count <= 0 {
			add("direct_igniters.count must be positive, got %d", *c.Direct.Count)
		}
	}

	return problems
}

// Params returns the pulse parameters for the encoder and transmitter.
// Only valid on a Config returned by Load.
func (c *Config) Params() rfcodec.Params {
	return rfcodec.Params{
		GPIO:    *c.Sender.GPIO,
		Gap:     *c.Sender.Gap,
		T0:      *c.Sender.T0,
		T1:      *c.Sender.T1,
		Bits:    *c.Sender.Bits,
		Repeats: *c.Sender.Repeats,
	}
}

// AuthRequired reports whether authorization is enforced.
func (c *Config) AuthRequired() bool {
	return *c.Auth.Required
}

// AuthCode returns the expected authorization code, 0 when
// authorization is not enforced and no code is configured.
func (c *Config) AuthCode() uint32 {
	if c.Auth.Code == nil {
		return 0
	}
	return *c.Auth.Code
}

// AuthTimeout returns the default authorization session timeout.
func (c *Config) AuthTimeout() time.Duration {
	return time.Duration(*c.Auth.TimeoutSeconds) * time.Second
}

// TxMode returns the configured transmit strategy.
func (c *Config) TxMode() string {
	if c.Sender.Mode == "" {
		return TxModeGPIO
	}
	return c.Sender.Mode
}

// Broker returns the configured MQTT broker for audit publishing,
// empty when audit publishing is disabled.
func (c *Config) Broker() string {
	return c.MQTT.Broker
}

// EnabledGroups returns the enabled channel groups.
func (c *Config) EnabledGroups() []Group {
	var out []Group
	for _, g := range c.Groups {
		if g.Enabled {
			out = append(out, g)
		}
	}
	return out
}

// GroupBases maps enabled group ids to their code bases.
func (c *Config) GroupBases() map[int]int {
	bases := make(map[int]int)
	for _, g := range c.EnabledGroups() {
		bases[g.ID] = *g.Base
	}
	return bases
}

// DirectFirstBox returns the first standalone igniter code base, 0 when
// standalone igniters are disabled.
func (c *Config) DirectFirstBox() int {
	if !c.Direct.Enabled || c.Direct.FirstBox == nil {
		return 0
	}
	return *c.Direct.FirstBox
}

// DirectCount returns the configured standalone igniter count, 0 when
// disabled.
func (c *Config) DirectCount() int {
	if !c.Direct.Enabled || c.Direct.Count == nil {
		return 0
	}
	return *c.Direct.Count
}
