package utils

import (
	"fmt"
	"strings"

	"github.com/notargets/gocca"
)

// DeviceProps returns the OCCA properties for a device mode name. Accepted
// names are serial, openmp, cuda, opencl, or a raw JSON property string.
func DeviceProps(mode string) (string, error) {
	m := strings.TrimSpace(mode)
	switch strings.ToLower(m) {
	case "serial":
		return `{"mode": "Serial"}`, nil
	case "openmp":
		return `{"mode": "OpenMP"}`, nil
	case "cuda":
		return `{"mode": "CUDA", "device_id": 0}`, nil
	case "opencl":
		return `{"mode": "OpenCL", "platform_id": 0, "device_id": 0}`, nil
	}
	if strings.HasPrefix(m, "{") {
		return m, nil
	}
	return "", fmt.Errorf("unknown device mode %q", mode)
}

// CreateDevice opens a device by mode name or raw JSON properties
func CreateDevice(mode string) (*gocca.OCCADevice, error) {
	props, err := DeviceProps(mode)
	if err != nil {
		return nil, err
	}
	device, err := gocca.NewDevice(props)
	if err != nil {
		return nil, fmt.Errorf("create %s device: %w", mode, err)
	}
	return device, nil
}

// CreateTestDevice creates a Device for testing, preferring parallel backends
func CreateTestDevice() *gocca.OCCADevice {
	for _, mode := range []string{"openmp", "cuda", "serial"} {
		device, err := CreateDevice(mode)
		if err == nil {
			fmt.Printf("Created %s Device\n", device.Mode())
			return device
		}
	}
	panic("Failed to create any Device")
}
