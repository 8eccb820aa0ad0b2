package radio

import (
	"log"
	"os"
	"strings"
)

// Platform selects which receive transport a deployment uses. It is
// detected once at startup and never re-detected.
type Platform int

const (
	// PlatformGPIO decodes edges directly on a GPIO pin. Used on
	// boards whose GPIO stack supports timestamped edge events.
	PlatformGPIO Platform = iota
	// PlatformSerial reads pre-decoded codes from a serial-attached
	// microcontroller bridge.
	PlatformSerial
)

func (p Platform) String() string {
	switch p {
	case PlatformGPIO:
		return "gpio"
	case PlatformSerial:
		return "serial"
	}
	return "unknown"
}

const modelPath = "/proc/device-tree/model"

// Detect reads the device-tree model string and maps it to a Platform.
func Detect() Platform {
	model, err := os.ReadFile(modelPath)
	if err != nil {
		log.Printf("radio: cannot read %s (%v), using serial bridge", modelPath, err)
		return PlatformSerial
	}
	return detectFrom(strings.TrimRight(string(model), "\x00\n"))
}

// detectFrom maps a device-tree model string to a Platform. Unknown
// models fall back to the serial bridge.
func detectFrom(model string) Platform {
	if strings.Contains(model, "Raspberry Pi 4") {
		return PlatformGPIO
	}
	if !strings.Contains(model, "Raspberry Pi 5") {
		log.Printf("radio: unknown platform %q, falling back to serial bridge", model)
	}
	return PlatformSerial
}
