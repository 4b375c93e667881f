package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"vinyasa/internal/angles"
	"vinyasa/internal/config"
	"vinyasa/internal/library"
	"vinyasa/internal/logging"
)

// minFreeBytes is the free-space floor for the data directory filesystem.
// The journal and session documents are small; a disk this full is about to
// be a problem for more than this tool.
const minFreeBytes = 50 << 20

// statfsFn allows tests to stub filesystem stats.
type statfsFn func(path string) (total uint64, free uint64, err error)

var statfs statfsFn = realStatfs

// CheckDataDir verifies the data directory is usable: an existing directory
// must be readable and writable, a missing one must be creatable under its
// nearest existing parent.
func CheckDataDir(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "no path configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			parent := nearestExisting(path)
			if accessErr := unix.Access(parent, unix.W_OK|unix.X_OK); accessErr != nil {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, accessErr)}
			}
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding the data directory has room
// left for the journal and session documents.
func CheckFreeSpace(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "no path configured"}
	}
	target := nearestExisting(path)
	total, free, err := statfs(target)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", target, err)}
	}
	detail := fmt.Sprintf("%s free of %s", formatBytes(free), formatBytes(total))
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (below the %s minimum)", detail, formatBytes(minFreeBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSpeechCommand verifies the narrator's command resolves on PATH.
func CheckSpeechCommand(name string, command []string) Result {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return Result{Name: name, Detail: "narration enabled but no command configured"}
	}
	resolved, err := exec.LookPath(command[0])
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not found in PATH)", command[0])}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckLibrary verifies the reference pose library exists, parses, and holds
// at least one pose.
func CheckLibrary(name string, cfg *config.Config) Result {
	path := cfg.Paths.LibraryPath
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "no library path configured"}
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not found; import poses first)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	lib, err := library.Load(path, cfg.Detection.ScaleEpsilon, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if lib.Len() == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: holds no reference poses)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d poses)", path, lib.Len())}
}

// CheckAngleCatalog verifies a configured requirement catalog parses and
// passes schema validation.
func CheckAngleCatalog(name, path string) Result {
	defs, err := angles.LoadFile(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d poses)", path, len(defs.Poses()))}
}

// nearestExisting walks up from path to the closest directory that exists,
// so creatable-but-missing paths can still be checked for permissions and
// free space.
func nearestExisting(path string) string {
	dir := filepath.Clean(path)
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}

func formatBytes(value uint64) string {
	const (
		kiB = 1 << 10
		miB = 1 << 20
		giB = 1 << 30
	)
	switch {
	case value >= giB:
		return fmt.Sprintf("%.2f GiB", float64(value)/float64(giB))
	case value >= miB:
		return fmt.Sprintf("%.2f MiB", float64(value)/float64(miB))
	case value >= kiB:
		return fmt.Sprintf("%.2f KiB", float64(value)/float64(kiB))
	default:
		return fmt.Sprintf("%d B", value)
	}
}
