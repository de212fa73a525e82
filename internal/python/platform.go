package python

import (
	"fmt"
	"path/filepath"

	"github.com/jakoblorz/airflowctl/internal/models"
)

// Platform describes how a virtual environment is laid out on one OS.
type Platform struct {
	GOOS    string
	windows bool
}

var posixSystems = map[string]bool{
	"aix":       true,
	"android":   true,
	"darwin":    true,
	"dragonfly": true,
	"freebsd":   true,
	"hurd":      true,
	"illumos":   true,
	"ios":       true,
	"linux":     true,
	"netbsd":    true,
	"openbsd":   true,
	"solaris":   true,
}

// PlatformFor returns the layout for goos. Systems that are neither POSIX
// nor Windows yield ErrUnsupportedOS.
func PlatformFor(goos string) (Platform, error) {
	switch {
	case goos == "windows":
		return Platform{GOOS: goos, windows: true}, nil
	case posixSystems[goos]:
		return Platform{GOOS: goos}, nil
	default:
		return Platform{}, fmt.Errorf("%w: %s", models.ErrUnsupportedOS, goos)
	}
}

// IsWindows reports whether p is the Windows layout.
func (p Platform) IsWindows() bool { return p.windows }

// BinDir is where the environment's executables live.
func (p Platform) BinDir(venvPath string) string {
	if p.windows {
		return filepath.Join(venvPath, "Scripts")
	}
	return filepath.Join(venvPath, "bin")
}

// Executable returns the path of a console script inside the environment.
func (p Platform) Executable(venvPath, name string) string {
	if p.windows {
		name += ".exe"
	}
	return filepath.Join(p.BinDir(venvPath), name)
}

// Interpreter returns the environment's python binary.
func (p Platform) Interpreter(venvPath string) string {
	return p.Executable(venvPath, "python")
}

// PathListSeparator separates PATH entries on this platform.
func (p Platform) PathListSeparator() string {
	if p.windows {
		return ";"
	}
	return ":"
}
