//go:build !linux

package envcheck

import (
	"os"
	"runtime"
)

// probeHost collects host facts for report headers.
// The kernel release is only reported on Linux.
func probeHost() HostInfo {
	h := HostInfo{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}
	return h
}
