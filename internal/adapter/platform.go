package adapter

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// Platform identifies a host operating system with a known renderer location.
type Platform int

// Known platforms.
const (
	PlatformUnknown Platform = iota
	PlatformLinux
	PlatformWindows
	PlatformDarwin
)

func (p Platform) String() string {
	switch p {
	case PlatformLinux:
		return "linux"
	case PlatformWindows:
		return "windows"
	case PlatformDarwin:
		return "darwin"
	case PlatformUnknown:
	}

	return "unknown"
}

// rendererPaths is where OpenSCAD is installed by default on each platform.
var rendererPaths = map[Platform]string{
	PlatformLinux:   "openscad",
	PlatformWindows: `C:\Program Files\OpenSCAD\openscad.exe`,
	PlatformDarwin:  "/Applications/OpenSCAD.app/Contents/MacOS/OpenSCAD",
}

// ParsePlatform maps a GOOS value to a Platform.
func ParsePlatform(goos string) (Platform, error) {
	switch strings.ToLower(goos) {
	case "linux":
		return PlatformLinux, nil
	case "windows":
		return PlatformWindows, nil
	case "darwin":
		return PlatformDarwin, nil
	}

	return PlatformUnknown, fmt.Errorf("%w: %q", m.ErrUnsupportedPlatform, goos)
}

// HostPlatform returns the platform the harness runs on.
func HostPlatform() (Platform, error) {
	return ParsePlatform(runtime.GOOS)
}

// ExecutablePath returns the known renderer path for a platform.
func ExecutablePath(p Platform) (string, error) {
	path, ok := rendererPaths[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", m.ErrUnsupportedPlatform, p)
	}

	return path, nil
}

// ResolveRenderer picks the renderer executable: override when non-empty,
// otherwise the platform default. The result must exist and be executable.
func ResolveRenderer(p Platform, override string) (string, error) {
	candidate := strings.TrimSpace(override)
	if candidate == "" {
		var err error

		candidate, err = ExecutablePath(p)
		if err != nil {
			return "", err
		}
	}

	resolved, err := exec.LookPath(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", m.ErrRendererNotFound, candidate, err)
	}

	return resolved, nil
}
