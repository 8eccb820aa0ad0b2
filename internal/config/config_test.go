package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validConfig = `{
  "rf_sender": {"gpio": 17, "gap": 9600, "t0": 300, "t1": 900, "bits": 24, "repeats": 5},
  "rf_receiver": {"gpio": 27, "glitch_us": 150, "watchdog_ms": 100},
  "authorization": {"required": true, "timeout_seconds": 30, "code": 4711},
  "groups": [
    {"id": 1, "name": "Left bank", "base": 100, "enabled": true},
    {"id": 2, "name": "Right bank", "base": 200, "enabled": true},
    {"id": 3, "name": "Spare", "base": 300, "enabled": false}
  ],
  "direct_igniters": {"enabled": true, "first_box": 1001, "count": 50},
  "serial": {"port": "/dev/ttyUSB0"},
  "mqtt": {"broker": "tcp://10.0.0.5:1883"},
  "logging": {"level": "debug"}
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := cfg.Params()
	if p.GPIO != 17 || p.Gap != 9600 || p.T0 != 300 || p.T1 != 900 || p.Bits != 24 || p.Repeats != 5 {
		t.Errorf("Params() = %+v", p)
	}
	if !cfg.AuthRequired() {
		t.Error("AuthRequired() = false")
	}
	if cfg.AuthCode() != 4711 {
		t.Errorf("AuthCode() = %d", cfg.AuthCode())
	}
	if cfg.AuthTimeout() != 30*time.Second {
		t.Errorf("AuthTimeout() = %v", cfg.AuthTimeout())
	}
	if cfg.TxMode() != TxModeGPIO {
		t.Errorf("TxMode() = %q", cfg.TxMode())
	}

	bases := cfg.GroupBases()
	if len(bases) != 2 {
		t.Fatalf("GroupBases() has %d entries, want 2 (disabled group excluded)", len(bases))
	}
	if bases[1] != 100 || bases[2] != 200 {
		t.Errorf("GroupBases() = %v", bases)
	}

	if cfg.DirectFirstBox() != 1001 || cfg.DirectCount() != 50 {
		t.Errorf("direct = %d/%d", cfg.DirectFirstBox(), cfg.DirectCount())
	}

	if cfg.Broker() != "tcp://10.0.0.5:1883" {
		t.Errorf("Broker() = %q", cfg.Broker())
	}
}

func TestLoadCollectsAllProblems(t *testing.T) {
	_, err := Load(writeConfig(t, `{
	  "rf_sender": {"gpio": 17, "t0": 300},
	  "authorization": {"required": true},
	  "direct_igniters": {"enabled": true}
	}`))
	if err == nil {
		t.Fatal("invalid config accepted")
	}

	for _, want := range []string{
		"rf_sender.gap missing",
		"rf_sender.t1 missing",
		"rf_sender.bits missing",
		"rf_sender.repeats missing",
		"rf_receiver.gpio missing",
		"authorization.timeout_seconds missing",
		"authorization.code missing",
		"direct_igniters.first_box missing",
		"direct_igniters.count missing",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %q:\n%v", want, err)
		}
	}
}

func TestLoadAuthCodeOptionalWhenNotRequired(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
	  "rf_sender": {"gpio": 17, "gap": 9600, "t0": 300, "t1": 900, "bits": 24, "repeats": 5},
	  "rf_receiver": {"gpio": 27},
	  "authorization": {"required": false, "timeout_seconds": 30}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthRequired() {
		t.Error("AuthRequired() = true")
	}
	if cfg.AuthCode() != 0 {
		t.Errorf("AuthCode() = %d, want 0", cfg.AuthCode())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, strings.Replace(validConfig, `"code": 4711`, `"code": 0`, 1)))
	if err == nil || !strings.Contains(err.Error(), "must be non-zero") {
		t.Errorf("zero auth code: err = %v", err)
	}

	_, err = Load(writeConfig(t, strings.Replace(validConfig, `"repeats": 5`, `"repeats": 0`, 1)))
	if err == nil || !strings.Contains(err.Error(), "repeats must be positive") {
		t.Errorf("zero repeats: err = %v", err)
	}

	_, err = Load(writeConfig(t, strings.Replace(validConfig, `"bits": 24`, `"bits": 40`, 1)))
	if err == nil || !strings.Contains(err.Error(), "bits must be 1..32") {
		t.Errorf("oversized bits: err = %v", err)
	}
}

func TestLoadRejectsPlaceholder(t *testing.T) {
	cfg := strings.Replace(validConfig, `"/dev/ttyUSB0"`, `"CHANGE_ME"`, 1)
	_, err := Load(writeConfig(t, cfg))
	if err == nil {
		t.Fatal("Load accepted a CHANGE_ME placeholder")
	}
	if !strings.Contains(err.Error(), "serial.port") {
		t.Errorf("error does not name the field: %v", err)
	}
}

func TestLoadCodesendModeNeedsPath(t *testing.T) {
	content := strings.Replace(validConfig,
		`"repeats": 5`,
		`"repeats": 5, "mode": "codesend"`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "codesend_path missing") {
		t.Errorf("err = %v", err)
	}

	content = strings.Replace(validConfig,
		`"repeats": 5`,
		`"repeats": 5, "mode": "codesend", "codesend_path": "/usr/local/bin/codesend"`, 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TxMode() != TxModeCodesend {
		t.Errorf("TxMode() = %q", cfg.TxMode())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	if _, err := Load(writeConfig(t, "{not json")); err == nil {
		t.Error("malformed JSON accepted")
	}
}
