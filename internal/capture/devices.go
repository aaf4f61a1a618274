package capture

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Device describes one V4L2 capture node.
type Device struct {
	Path string
	Name string
}

// ListDevices enumerates /dev/video* nodes, resolving each node's card name
// from sysfs where available. Returns an empty slice when no camera is
// present; enumeration itself never fails.
func ListDevices() []Device {
	nodes, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil
	}
	sort.Strings(nodes)

	devices := make([]Device, 0, len(nodes))
	for _, node := range nodes {
		devices = append(devices, Device{
			Path: node,
			Name: sysfsCardName(node),
		})
	}
	return devices
}

// sysfsCardName reads /sys/class/video4linux/<node>/name, returning an
// empty string when the attribute is missing.
func sysfsCardName(node string) string {
	data, err := os.ReadFile(filepath.Join(
		"/sys/class/video4linux", filepath.Base(node), "name"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
