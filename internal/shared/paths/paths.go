// Package paths resolves the application data directory across platforms.
//
// All persisted documents live under one root; the durable store owns
// everything beneath it.
package paths

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the platform config root.
const AppName = "termul"

// EnvDataDir overrides the resolved data directory when set.
const EnvDataDir = "TERMUL_DATA_DIR"

// DataDir returns the application data directory: the EnvDataDir override
// when set, otherwise <user config dir>/termul (e.g. ~/.config/termul on
// Linux, ~/Library/Application Support/termul on macOS, %AppData%\termul on
// Windows).
func DataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return filepath.Clean(dir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}
