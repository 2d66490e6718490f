package adb

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"adbrush/internal/domain"
)

// Locate finds the adb executable: PATH first, then the SDK platform-tools
// directories named by ANDROID_HOME and ANDROID_SDK_ROOT.
func Locate() string {
	return locate(exec.LookPath, os.Getenv, fileExists)
}

func locate(lookPath func(string) (string, error), getenv func(string) string, exists func(string) bool) string {
	if path, err := lookPath(domain.DefaultADBExecutable); err == nil {
		return path
	}
	name := domain.DefaultADBExecutable
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	for _, key := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		root := getenv(key)
		if root == "" {
			continue
		}
		candidate := filepath.Join(root, "platform-tools", name)
		if exists(candidate) {
			return candidate
		}
	}
	return domain.DefaultADBExecutable
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
