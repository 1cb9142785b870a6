package devicedb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// model describes one known device model.
type model struct {
	name             string
	generation       string
	capacityGB       float64
	checksumRequired bool
}

// knownModels maps model numbers (without region prefix) to device info.
// Newer generations require a signed database on write.
var knownModels = map[string]model{
	"MA002": {"iPod Video", "5th Generation", 30, false},
	"MA446": {"iPod Nano", "2nd Generation", 4, false},
	"MA450": {"iPod Video", "5.5 Generation", 80, false},
	"MB029": {"iPod Classic", "6th Generation", 80, true},
	"MB150": {"iPod Classic", "6th Generation", 160, true},
	"MC293": {"iPod Classic", "7th Generation", 160, true},
	"MC027": {"iPod Nano", "5th Generation", 16, true},
}

// sysInfoPath returns the location of the SysInfo file under mountpoint.
func sysInfoPath(mountpoint string) string {
	return filepath.Join(mountpoint, controlDir, "Device", "SysInfo")
}

// readSysInfo parses the device SysInfo file: one "Key: value" pair per
// line, unknown keys ignored.
func readSysInfo(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return values, scanner.Err()
}

// writeSysInfo writes a minimal SysInfo file for a freshly initialized
// device.
func writeSysInfo(path, modelNumber, deviceName string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "ModelNumStr: %s\n", modelNumber)
	fmt.Fprintf(&b, "DeviceName: %s\n", deviceName)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// lookupModel resolves a model number string against the known model
// table. Model numbers may carry a region prefix ("x" in "xMA450") and a
// regional suffix; matching is by the 5-character core.
func lookupModel(modelNumber string) (model, bool) {
	core := strings.ToUpper(modelNumber)
	if len(core) > 0 && core[0] != 'M' {
		core = core[1:]
	}
	if len(core) > 5 {
		core = core[:5]
	}
	m, ok := knownModels[core]
	return m, ok
}

// infoFromSysInfo builds device Info from a parsed SysInfo map.
func infoFromSysInfo(values map[string]string) *Info {
	info := &Info{
		ModelNumber:  values["ModelNumStr"],
		DeviceName:   values["DeviceName"],
		SerialNumber: values["SerialNumber"],
		FirewireGUID: values["FirewireGuid"],
	}
	if m, ok := lookupModel(info.ModelNumber); ok {
		info.ModelName = m.name
		info.Generation = m.generation
		info.CapacityGB = m.capacityGB
		info.ChecksumRequired = m.checksumRequired
		info.Recognized = true
	}
	return info
}
