package internal

import (
	"os"
	"os/exec"
	"runtime"
)

type Device string

const (
	DeviceMPS  Device = "mps"
	DeviceCUDA Device = "cuda"
	DeviceCPU  Device = "cpu"
)

// DetectHardware picks the accelerator for the in-process embedding model.
func DetectHardware() Device {
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return DeviceMPS
	}
	if isCUDA() {
		return DeviceCUDA
	}
	return DeviceCPU
}

func isCUDA() bool {
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return true
	}
	return false
}
