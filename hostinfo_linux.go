//go:build linux

package envcheck

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// probeHost collects host facts for report headers.
// The kernel release comes from uname(2), e.g. "6.1.0-generic".
func probeHost() HostInfo {
	h := HostInfo{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}
	var uname unix.Utsname
	if err := unix.Uname(&uname); err == nil {
		h.KernelRelease = unix.ByteSliceToString(uname.Release[:])
	}
	return h
}
