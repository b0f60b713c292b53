package tts

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/bobarin/readaloud/internal/config"
)

// ResolveDevice maps the "auto" (or empty) device to a concrete one: mps on
// macOS, cuda when an NVIDIA driver is visible, cpu otherwise. Explicit
// devices pass through unchanged.
func ResolveDevice(device string) string {
	if device != "" && device != config.DeviceAuto {
		return device
	}
	if runtime.GOOS == "darwin" {
		return config.DeviceMPS
	}
	if hasNvidia() {
		return config.DeviceCUDA
	}
	return config.DeviceCPU
}

func hasNvidia() bool {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return true
	}
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return true
	}
	return false
}
