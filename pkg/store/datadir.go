package store

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "gaplan"

// DefaultDataDir returns the directory holding gaplan's config and run
// history. GAPLAN_DIR overrides the OS default:
//
//   - macOS:   ~/Library/Application Support/gaplan
//   - Linux:   $XDG_DATA_HOME/gaplan (fallback ~/.local/share/gaplan)
//   - Windows: %LOCALAPPDATA%\gaplan (fallback %APPDATA%\gaplan)
func DefaultDataDir() string {
	if dir := os.Getenv("GAPLAN_DIR"); dir != "" {
		return dir
	}
	return defaultDataDirForOS(runtime.GOOS)
}

func defaultDataDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		for _, env := range []string{"LOCALAPPDATA", "APPDATA"} {
			if dir := os.Getenv(env); dir != "" {
				return filepath.Join(dir, appName)
			}
		}
		return filepath.Join(home, appName)
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, appName)
		}
		return filepath.Join(home, ".local", "share", appName)
	}
}
