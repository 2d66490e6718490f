package presets

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultPresetsFileName = "presets.db"

// ResolveDefaultPath returns the default location of the preset database.
func ResolveDefaultPath() string {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		base = "."
	}
	return filepath.Join(base, "adbrush", defaultPresetsFileName)
}
