package local

import (
	"runtime"

	"bloomed/internal/common/fsutil"
)

// allLayers asks llama.cpp to offload every layer.
const allLayers = 999

// detectAccelerator names the available accelerator, or "" for CPU only.
var detectAccelerator = func() string {
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return "metal"
	}
	for _, p := range []string{"/dev/nvidiactl", "/dev/nvidia0"} {
		if fsutil.PathExists(p) {
			return "cuda"
		}
	}
	return ""
}

// placement decides, once at load, how many layers go to the accelerator.
// configured > 0 is used as is and configured < 0 forces CPU.
func placement(configured int) (device string, gpuLayers int) {
	switch {
	case configured < 0:
		return "cpu", 0
	case configured > 0:
		if acc := detectAccelerator(); acc != "" {
			return acc, configured
		}
		return "cpu", configured
	}
	if acc := detectAccelerator(); acc != "" {
		return acc, allLayers
	}
	return "cpu", 0
}
